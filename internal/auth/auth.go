package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/resolution-tracker/internal/user"
)

// Claims identifies the acting user. Tokens carry no roles; positions are
// read from the user record on every request.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type TokenGenerator interface {
	GenerateAccessToken(u user.User) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret []byte
	AccessTokenTTL    time.Duration
	Issuer            string
}

// UserLookup loads the user a token was issued for.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

const DefaultAccessTokenTTL = 15 * time.Minute
