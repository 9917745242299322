// Package session carries the authenticated caller through a request.
//
// A Session is resolved once by Middleware from the bearer token and passed
// down explicitly via context; nothing below the HTTP layer reads ambient
// auth state.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"colectas/internal/core"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSession    = errors.New("no session in context")
	ErrForbidden    = errors.New("forbidden")
)

// Session identifies the caller and the club every operation is scoped to.
type Session struct {
	UserID string
	ClubID string
	Rol    core.Rol
}

func (s Session) IsAdmin() bool { return s.Rol == core.RolAdmin }

// Claims is the JWT payload issued for a club user.
type Claims struct {
	ClubID string   `json:"club_id"`
	Rol    core.Rol `json:"rol"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for s.
func (i *Issuer) Issue(s Session) (string, error) {
	now := i.now()
	claims := Claims{
		ClubID: s.ClubID,
		Rol:    s.Rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies token and returns the session it encodes.
func (i *Issuer) Parse(token string) (Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	s := Session{UserID: claims.Subject, ClubID: claims.ClubID, Rol: claims.Rol}
	if s.UserID == "" || s.ClubID == "" || !s.Rol.Valid() {
		return Session{}, fmt.Errorf("%w: incomplete claims", ErrInvalidToken)
	}
	return s, nil
}

// FromRequest extracts and verifies the bearer token of r.
func (i *Issuer) FromRequest(r *http.Request) (Session, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return Session{}, ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Session{}, ErrMissingToken
	}
	return i.Parse(strings.TrimSpace(token))
}

// Middleware rejects requests without a valid token and stores the session
// in the request context. onError writes the rejection.
func (i *Issuer) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := i.FromRequest(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireAdmin returns ErrForbidden unless the session in ctx is an admin.
func RequireAdmin(ctx context.Context) (Session, error) {
	s, err := FromContext(ctx)
	if err != nil {
		return s, err
	}
	if !s.IsAdmin() {
		return s, ErrForbidden
	}
	return s, nil
}
