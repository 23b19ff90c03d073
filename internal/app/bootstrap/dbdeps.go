// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/mailer"
	"github.com/dalemusser/kanbanhub/internal/app/system/ratelimit"
	"github.com/dalemusser/kanbanhub/internal/app/system/tasks"
	"github.com/dalemusser/kanbanhub/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the back-end dependencies shared by every hook after
// ConnectDB. Pointer fields are shared, so Startup and Shutdown act on the
// same instances BuildHandler wires into handlers.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when redis_addr is blank.
	Redis *redis.Client

	Mailer      *mailer.Mailer
	Queue       *workers.Queue
	Rooms       *realtime.Registry
	AuthLimiter ratelimit.Checker
	Jobs        *tasks.Scheduler
}
