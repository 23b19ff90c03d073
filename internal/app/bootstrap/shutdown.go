// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown closes live sockets and drains queued notifications before
// closing the brokers and databases they write to.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Rooms != nil {
		logger.Info("closing realtime connections")
		deps.Rooms.CloseAll()
	}
	if deps.Jobs != nil {
		deps.Jobs.Stop()
	}
	if deps.Queue != nil {
		deps.Queue.Stop()
	}
	if c, ok := deps.AuthLimiter.(interface{ Close() }); ok {
		c.Close()
	}
	if deps.Mailer != nil {
		if err := deps.Mailer.Close(); err != nil {
			logger.Warn("mail broker close failed", zap.Error(err))
		}
	}
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
