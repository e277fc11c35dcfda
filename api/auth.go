package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// Claims is the bearer token payload. Subject is the actor id (an employee id
// for everyone but platform staff).
type Claims struct {
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	DealerID  string `json:"dealer_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs claims with HS256. Used by operators and tests.
func GenerateToken(secret, issuer string, actor timeoff.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:      string(actor.Role),
		CompanyID: string(actor.CompanyID),
		DealerID:  string(actor.DealerID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(actor.ID),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies signature, expiry and issuer (when issuer is set).
func ParseToken(secret, issuer, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

type actorKey struct{}

// ActorFrom returns the authenticated actor placed in ctx by Authenticate.
func ActorFrom(ctx context.Context) (timeoff.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(timeoff.Actor)
	return a, ok
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor timeoff.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Authenticate rejects requests without a valid bearer token and puts the
// resulting actor on the request context.
func Authenticate(secret, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				writeStatus(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}
			claims, err := ParseToken(secret, issuer, strings.TrimSpace(raw))
			if err != nil {
				writeStatus(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token", err)
				return
			}
			role, err := timeoff.ParseRole(claims.Role)
			if err != nil {
				writeStatus(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token", err)
				return
			}
			actor := timeoff.Actor{
				ID:        generic.ActorID(claims.Subject),
				Role:      role,
				CompanyID: generic.CompanyID(claims.CompanyID),
				DealerID:  generic.DealerID(claims.DealerID),
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
