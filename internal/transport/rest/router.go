package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/resolution-tracker/internal/auth"
	"github.com/frahmantamala/resolution-tracker/internal/transport/middleware"
	"github.com/frahmantamala/resolution-tracker/internal/transport/openapi"
	"github.com/frahmantamala/resolution-tracker/internal/transport/swagger"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/internal/workflow"
)

// Handlers groups everything the router mounts. Nil handlers are skipped.
type Handlers struct {
	Health   *HealthHandler
	Auth     *auth.Handler
	User     *user.Handler
	Workflow *workflow.Handler
	// Users backs the position check on the directory listing.
	Users          middleware.UserLookup
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, logger *slog.Logger) {
	router.Use(middleware.CORS(h.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.BearerContext)

	// OpenAPI document and Swagger UI live at root, outside the API prefix
	router.Get(openapi.Path, openapi.Handler().ServeHTTP)
	router.Handle("/swagger/*", swagger.Handler(openapi.Path))

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				if h.Users != nil {
					pr.With(middleware.RequirePositions(h.Users,
						user.PositionSecretary,
						user.PositionCEO,
						user.PositionAuditor,
					)).Get("/users", h.User.ListUsers)
				}
			}

			if h.Workflow != nil {
				h.Workflow.Routes(pr)
			}
		})
	})
}

// NewRouter builds a chi router with every route registered.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	RegisterAllRoutes(router, h, logger)
	return router
}
