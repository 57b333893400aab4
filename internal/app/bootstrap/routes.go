// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	directoryfeature "github.com/classline/classline/internal/app/features/directory"
	healthfeature "github.com/classline/classline/internal/app/features/health"
	messagesfeature "github.com/classline/classline/internal/app/features/messages"
	sessionfeature "github.com/classline/classline/internal/app/features/session"
	"github.com/classline/classline/internal/app/live"
	"github.com/classline/classline/internal/app/messaging"
	"github.com/classline/classline/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. ClassLine initializes the session
// store, builds the messaging service and live synchronizer over the
// shared stores, and mounts the JSON feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	svc := messaging.NewService(deps.Directory, deps.Messages, logger)
	sync := live.New(deps.Messages, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Session establishment and teardown
	sessionHandler := sessionfeature.NewHandler(deps.Directory, logger)
	sessionfeature.MountRoutes(r, sessionHandler)

	// Directory provisioning: users, departments, classes, rosters
	directoryHandler := directoryfeature.NewHandler(deps.Directory, logger)
	directoryfeature.MountRoutes(r, directoryHandler)

	// Messaging: conversations, votes, replies, live streams
	messagesHandler := messagesfeature.NewHandler(svc, sync, deps.Directory, logger)
	messagesfeature.MountRoutes(r, messagesHandler)

	return r, nil
}
