// Package txn runs multi-document writes inside a MongoDB transaction when
// the deployment supports one, and sequentially otherwise.
package txn

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes meaning transactions are unavailable:
// 20 IllegalOperation (standalone), 51 (legacy), 263 OperationNotSupportedInTransaction.
var notSupportedCodes = []int{20, 51, 263}

// IsNotSupported reports whether err is a server error saying the
// deployment cannot run transactions. Other failures, including aborted
// transactions, are not matched.
func IsNotSupported(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	for _, code := range notSupportedCodes {
		if se.HasErrorCode(code) {
			return true
		}
	}
	return false
}

// Run executes fn inside a transaction on client. When the deployment
// cannot run transactions, fn runs again on ctx without one; in that mode
// a failure partway through leaves earlier writes in place.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runWithoutTxn(ctx, log, err, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runWithoutTxn(ctx, log, err, fn)
	}
	return err
}

func runWithoutTxn(ctx context.Context, log *zap.Logger, cause error, fn func(ctx context.Context) error) error {
	if log != nil {
		log.Debug("transactions unavailable; running sequentially", zap.Error(cause))
	}
	return fn(ctx)
}
