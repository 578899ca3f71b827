package httphandler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// ErrUnauthenticated indicates a missing or invalid bearer token.
var ErrUnauthenticated = errors.New("unauthenticated")

type actorKey struct{}

// actorClaims are the bearer token claims: sub is the numeric user id.
type actorClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Authenticator resolves the acting user from an HS256 bearer token. Token
// issuance happens elsewhere.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator verifying tokens with secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Actor verifies token and returns the user it was issued to.
func (a *Authenticator) Actor(token string) (model.Actor, error) {
	claims := &actorClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return model.Actor{}, fmt.Errorf("%w: subject %q is not a user id", ErrUnauthenticated, claims.Subject)
	}

	return model.Actor{ID: id, DisplayName: claims.Name}, nil
}

// requireActor rejects requests without a valid bearer token and stores the
// actor in the request context.
func (a *Authenticator) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, categoryAuth, "bearer token required")
			return
		}

		actor, err := a.Actor(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, categoryAuth, "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// originFrom returns the acting user and network origin of r.
func originFrom(r *http.Request) model.Origin {
	actor, _ := r.Context().Value(actorKey{}).(model.Actor)

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	return model.Origin{
		Actor:     actor,
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}
