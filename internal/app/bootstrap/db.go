// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	notificationstore "github.com/dalemusser/kanbanhub/internal/app/store/notifications"
	"github.com/dalemusser/kanbanhub/internal/app/system/indexes"
	"github.com/dalemusser/kanbanhub/internal/app/system/mailer"
	"github.com/dalemusser/kanbanhub/internal/app/system/ratelimit"
	"github.com/dalemusser/kanbanhub/internal/app/system/tasks"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/app/system/validators"
	"github.com/dalemusser/kanbanhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// notifyWorkers drains the notification queue.
const notifyWorkers = 4

// ConnectDB connects MongoDB (and Redis when configured) and builds the
// in-process back ends that hang off them: the mail publisher, the
// notification queue and maintenance jobs, realtime rooms and the auth
// rate limiter.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	timeouts.Configure(appCfg.Timeouts)
	t := timeouts.Current()
	logger.Info("operation timeouts",
		zap.Duration("ping", t.Ping), zap.Duration("short", t.Short),
		zap.Duration("medium", t.Medium), zap.Duration("long", t.Long))

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("mongo connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("mongo ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize),
		zap.Uint64("min_pool", appCfg.MongoMinPoolSize))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			_ = client.Disconnect(context.Background())
			logger.Error("redis ping failed", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
			return DBDeps{}, fmt.Errorf("ping redis: %w", err)
		}
		deps.Redis = rdb
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	}
	deps.AuthLimiter = newAuthLimiter(appCfg, deps.Redis)

	deps.Mailer = mailer.New(mailer.Config{
		URL:      appCfg.AMQPURL,
		Queue:    appCfg.MailQueue,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	if !deps.Mailer.Enabled() {
		logger.Info("amqp_url not set; outbound email disabled")
	}

	deps.Queue = workers.NewQueue(logger, appCfg.NotifyQueueSize, notifyWorkers, timeouts.Medium())
	deps.Rooms = realtime.NewRegistry()

	deps.Jobs = tasks.NewScheduler(logger, timeouts.Long())
	if appCfg.NotifyRetention > 0 {
		deps.Jobs.Add(tasks.NotificationRetentionJob(
			notificationstore.New(deps.MongoDatabase), logger, appCfg.NotifyRetention))
	}

	return deps, nil
}

// newAuthLimiter shares limits across processes through Redis when one is
// configured, and keeps them per process otherwise.
func newAuthLimiter(appCfg AppConfig, rdb *redis.Client) ratelimit.Checker {
	if rdb != nil {
		return ratelimit.NewRedis(rdb, "kanbanhub:rl", appCfg.AuthRateLimit, appCfg.AuthRateWindow)
	}
	return ratelimit.New(appCfg.AuthRateLimit, appCfg.AuthRateWindow)
}

// EnsureSchema creates indexes and installs collection validators.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	return nil
}
