package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// ErrUnauthorized is returned for a missing, invalid, expired or revoked token.
var ErrUnauthorized = errors.New("unauthorized")

type ctxKey string

const (
	sessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")
	usernameCtxKey    = ctxKey("username")
)

// Claims is the JWT payload of a session.
type Claims struct {
	jwt.StandardClaims
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
}

// UserVerifier is an optional callback to validate that a session's user still exists.
type UserVerifier func(ctx context.Context, uid uint) bool

// Manager issues and validates session tokens.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	revoker  Revoker
	verifier UserVerifier
	now      func() time.Time
}

// NewManager returns a Manager signing HS256 tokens with secret. A nil
// revoker disables revocation.
func NewManager(secret string, ttl time.Duration, revoker Revoker) *Manager {
	if revoker == nil {
		revoker = NopRevoker{}
	}
	return &Manager{secret: []byte(secret), ttl: ttl, revoker: revoker, now: time.Now}
}

// SetUserVerifier configures the verifier used by RequireAuth.
func (m *Manager) SetUserVerifier(v UserVerifier) { m.verifier = v }

// Issue signs a token for the user.
func (m *Manager) Issue(userID uint, username string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
			Subject:   username,
		},
		UserID:   userID,
		Username: username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// CreateSession issues a token and stores it in the session cookie.
func (m *Manager) CreateSession(w http.ResponseWriter, userID uint, username string) (string, error) {
	token, exp, err := m.Issue(userID, username)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
	return token, nil
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// Parse validates a token and checks it against the revocation list.
func (m *Manager) Parse(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == 0 {
		return nil, ErrUnauthorized
	}
	revoked, err := m.revoker.IsRevoked(ctx, claims.Id)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// TokenFromRequest returns the bearer token, or the session cookie value.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Logout revokes the request's token for its remaining lifetime and clears
// the cookie. A request without a valid token only clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	defer ClearSession(w)
	claims, err := m.Parse(r.Context(), TokenFromRequest(r))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil
		}
		return err
	}
	ttl := time.Unix(claims.ExpiresAt, 0).Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revoker.Revoke(r.Context(), claims.Id, ttl)
}

// WithUser stores the user identity in context.
func WithUser(ctx context.Context, userID uint, username string) context.Context {
	ctx = context.WithValue(ctx, userIDCtxKey, userID)
	return context.WithValue(ctx, usernameCtxKey, username)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// UsernameFromContext extracts the username.
func UsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(usernameCtxKey).(string)
	return name
}

// Middleware attaches the user identity to the request context if a valid
// token is present.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := m.Parse(r.Context(), TokenFromRequest(r)); err == nil {
			r = r.WithContext(WithUser(r.Context(), claims.UserID, claims.Username))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if ok && m.verifier != nil && !m.verifier(r.Context(), uid) {
			// session refers to a deleted user
			ClearSession(w)
			ok = false
		}
		if !ok {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
