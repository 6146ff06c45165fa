package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are carried by the bearer tokens acquirers and publishers present.
// ClientID is the OAuth client the caller authenticated as.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Tokens validates HMAC-signed client tokens. Issue exists for local
// development and tests; production tokens come from the identity provider.
type Tokens struct {
	signingKey []byte
	issuer     string
}

func NewTokens(signingKey, issuer string) *Tokens {
	return &Tokens{signingKey: []byte(signingKey), issuer: issuer}
}

func (t *Tokens) Issue(clientID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(t.signingKey)
}

var errInvalidToken = errors.New("invalid token")

func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	}, jwt.WithIssuer(t.issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ClientID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

type contextKeyClientID struct{}

// ClientID returns the authenticated client, or "" outside RequireClient.
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyClientID{}).(string)
	return id
}

// RequireClient rejects requests without a valid bearer token and stores the
// token's client id on the request context.
func RequireClient(tokens *Tokens, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				logger.Warn("unauthorized request - missing token", "path", r.URL.Path)
				respondError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.Warn("unauthorized request - invalid token", "path", r.URL.Path, "error", err)
				if errors.Is(err, jwt.ErrTokenExpired) {
					respondError(w, http.StatusUnauthorized, "token has expired")
					return
				}
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyClientID{}, claims.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards the admin routes with a static bearer token.
func RequireAdmin(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logger.Warn("unauthorized admin request", "path", r.URL.Path, "method", r.Method)
				respondError(w, http.StatusUnauthorized, "admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
