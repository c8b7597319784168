package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/transport"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type UserLookup interface {
	GetByID(ctx context.Context, userID int64) (*user.User, error)
}

// RequirePositions lets the request through only when the authenticated
// user holds one of positions. It must run after the auth middleware.
func RequirePositions(users UserLookup, positions ...user.Position) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		base := transport.NewBaseHandler(nil)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := internal.UserIDFromContext(ctx)
			if userID == 0 {
				base.WriteAppError(w, internal.ErrInvalidToken)
				return
			}

			u, err := users.GetByID(ctx, userID)
			if err != nil {
				base.WriteAppError(w, internal.ErrInvalidToken.WithCause(err))
				return
			}

			if !u.HasPosition(positions...) {
				logger.From(ctx).Warn("access denied: position not allowed",
					"user_id", u.ID,
					"position", u.Position,
					"required_positions", positions)
				base.WriteAppError(w, internal.ErrActionNotAllowed)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
