package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/transport"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, tokenString string) (*user.User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// AuthMiddleware resolves the bearer token to a user and stores its id on
// the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Warn("auth middleware: missing authorization token", "path", r.URL.Path)
			h.WriteAppError(w, internal.ErrInvalidToken.WithMessage("missing authorization token"))
			return
		}

		u, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.WriteAppError(w, err)
			return
		}

		ctx := internal.ContextWithUserID(r.Context(), u.ID)
		ctx = logger.With(ctx, "user_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
