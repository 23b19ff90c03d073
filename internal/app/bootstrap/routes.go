// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authfeature "github.com/dalemusser/kanbanhub/internal/app/features/auth"
	boardsfeature "github.com/dalemusser/kanbanhub/internal/app/features/boards"
	cardsfeature "github.com/dalemusser/kanbanhub/internal/app/features/cards"
	commentsfeature "github.com/dalemusser/kanbanhub/internal/app/features/comments"
	errorsfeature "github.com/dalemusser/kanbanhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/kanbanhub/internal/app/features/health"
	listsfeature "github.com/dalemusser/kanbanhub/internal/app/features/lists"
	notificationsfeature "github.com/dalemusser/kanbanhub/internal/app/features/notifications"
	realtimefeature "github.com/dalemusser/kanbanhub/internal/app/features/realtime"
	usersfeature "github.com/dalemusser/kanbanhub/internal/app/features/users"
	"github.com/dalemusser/kanbanhub/internal/app/kanban"
	"github.com/dalemusser/kanbanhub/internal/app/notify"
	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	notificationstore "github.com/dalemusser/kanbanhub/internal/app/store/notifications"
	userstore "github.com/dalemusser/kanbanhub/internal/app/store/users"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// KanbanHub builds the token issuer, the notification emitter, and the
// board mutation engine once, then mounts the JSON API under /api, the
// realtime endpoint at /ws, and the health check at /health.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTExpiry, appCfg.JWTIssuer)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	requireAuth := tokens.RequireBearer(logger)

	proxies, err := ratelimit.ParseProxies(appCfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	db := deps.MongoDatabase
	emitter := notify.New(
		deps.Queue,
		notificationstore.New(db),
		userstore.New(db),
		deps.Mailer,
		notify.Options{SiteName: appCfg.AppName, AppURL: appCfg.AppURL},
		logger,
	)
	engine := kanban.New(deps.MongoClient, db, emitter, logger)

	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler(logger)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		api.NotFound(errorsHandler.NotFound)
		api.MethodNotAllowed(errorsHandler.MethodNotAllowed)

		authHandler := authfeature.NewHandler(db, tokens, deps.Mailer, appCfg.AppName, appCfg.AppURL, logger)
		api.Mount("/auth", authfeature.Routes(authHandler, deps.AuthLimiter, proxies, logger))

		usersHandler := usersfeature.NewHandler(db, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, requireAuth))

		boardsHandler := boardsfeature.NewHandler(engine, logger)
		api.Mount("/boards", boardsfeature.Routes(boardsHandler, requireAuth))

		listsHandler := listsfeature.NewHandler(engine, logger)
		api.Mount("/lists", listsfeature.Routes(listsHandler, requireAuth))

		cardsHandler := cardsfeature.NewHandler(engine, logger)
		api.Mount("/cards", cardsfeature.Routes(cardsHandler, requireAuth))

		commentsHandler := commentsfeature.NewHandler(engine, logger)
		api.Mount("/comments", commentsfeature.Routes(commentsHandler, requireAuth))

		notificationsHandler := notificationsfeature.NewHandler(db, logger)
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, requireAuth))
	})

	// Realtime rooms share the engine's access gate.
	dispatcher := realtime.NewDispatcher(deps.Rooms, engine.Gate(), logger)
	wsHandler := realtimefeature.NewHandler(dispatcher, tokens, appCfg.WSAllowedOrigins, 0, logger)
	r.Mount("/ws", realtimefeature.Routes(wsHandler))

	return r, nil
}
