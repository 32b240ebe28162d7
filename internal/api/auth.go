package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"beachrent/internal/config"
	"beachrent/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ActorResolver turns a token subject into the actor stored in the staff directory.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID int64) (models.Actor, error)
}

// Claims is the bearer token payload. Subject carries the user id.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type JWTAuth struct {
	secret []byte
	issuer string
	users  ActorResolver
}

func NewJWTAuth(cfg config.APIAuthConfig, users ActorResolver) *JWTAuth {
	return &JWTAuth{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, users: users}
}

// IssueToken signs an HS256 token for user valid for ttl.
func (a *JWTAuth) IssueToken(user models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *JWTAuth) validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(a.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the resolved actor in the context.
func (a *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.authenticate(r)
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func (a *JWTAuth) authenticate(r *http.Request) (models.Actor, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return models.Actor{}, errors.New("missing bearer token")
	}

	claims, err := a.validate(strings.TrimSpace(tokenString))
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid token: %w", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return models.Actor{}, errors.New("invalid token subject")
	}

	actor, err := a.users.ResolveActor(r.Context(), userID)
	if err != nil {
		return models.Actor{}, errors.New("unknown user")
	}
	return actor, nil
}

type ctxKey int

const (
	actorKey ctxKey = iota
	requestIDKey
)

func withActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func actorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}
