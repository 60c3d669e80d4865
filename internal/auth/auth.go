// Package auth binds HTTP requests to server-side sessions. The session
// identifier travels in a cookie as the jti of an HS256-signed JWT, so a
// tampered or foreign cookie simply resolves to no session.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/patric-chuzhbe/tracky/internal/logger"
	"github.com/patric-chuzhbe/tracky/internal/session"
)

type sessionManager interface {
	Resolve(ctx context.Context, id string) (int64, bool)
	Establish(ctx context.Context, id string, userID int64) error
	Destroy(ctx context.Context, id string) error
}

// CookieOptions describes the session cookie.
type CookieOptions struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// Auth loads sessions from cookies and issues new ones.
type Auth struct {
	sessions sessionManager
	cookie   CookieOptions
	secret   []byte
	newID    func() (string, error)
	now      func() time.Time
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// SessionKey is the context key under which LoadSession stores the *Session.
const SessionKey ContextKey = "session"

type Option func(*Auth)

// WithIDGenerator replaces session.NewID.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(a *Auth) {
		a.newID = newID
	}
}

func New(sessions sessionManager, secret []byte, cookie CookieOptions, opts ...Option) *Auth {
	a := &Auth{
		sessions: sessions,
		cookie:   cookie,
		secret:   secret,
		newID:    session.NewID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// LoadSession resolves the session cookie and stores a *Session in the
// request context. Requests without a valid cookie get an anonymous session
// that is persisted only if a handler establishes it.
func (a *Auth) LoadSession(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		sess := &Session{auth: a, response: response}

		if id := a.sessionIDFromCookie(request); id != "" {
			sess.id = id
			sess.userID, sess.loggedIn = a.sessions.Resolve(request.Context(), id)
		}

		ctx := context.WithValue(request.Context(), SessionKey, sess)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// RequireUser answers 401 to requests without a logged-in user.
func (a *Auth) RequireUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if _, ok := UserIDFromContext(request.Context()); !ok {
			http.Error(response, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// SessionFromContext returns the session stored by LoadSession, or nil.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(SessionKey).(*Session)
	return sess
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	return SessionFromContext(ctx).UserID()
}

func (a *Auth) sessionIDFromCookie(request *http.Request) string {
	cookie, err := request.Cookie(a.cookie.Name)
	if err != nil || cookie.Value == "" {
		return ""
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.secret, nil
		},
	)
	if err != nil || !token.Valid {
		logger.Log.Debugw("session cookie rejected", "err", err)
		return ""
	}

	return claims.ID
}

func (a *Auth) buildJWTString(id string) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.cookie.MaxAge)),
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (a *Auth) setCookie(response http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(response, &http.Cookie{
		Name:     a.cookie.Name,
		Value:    value,
		Path:     "/",
		Domain:   a.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   a.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session is the per-request handle on the caller's session.
type Session struct {
	auth     *Auth
	response http.ResponseWriter

	mu       sync.Mutex
	id       string
	userID   int64
	loggedIn bool
}

// UserID is safe to call on a nil *Session.
func (s *Session) UserID() (int64, bool) {
	if s == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID, s.loggedIn
}

// Establish binds userID to a brand new session identifier and sends it to
// the client. The previous identifier, if any, is destroyed best-effort.
func (s *Session) Establish(ctx context.Context, userID int64) error {
	id, err := s.auth.newID()
	if err != nil {
		return fmt.Errorf("in internal/auth/auth.go/Session.Establish(): error while `s.auth.newID()` calling: %w", err)
	}

	if err := s.auth.sessions.Establish(ctx, id, userID); err != nil {
		return fmt.Errorf("in internal/auth/auth.go/Session.Establish(): error while `s.auth.sessions.Establish()` calling: %w", err)
	}

	JWTString, err := s.auth.buildJWTString(id)
	if err != nil {
		return fmt.Errorf("in internal/auth/auth.go/Session.Establish(): error while `s.auth.buildJWTString()` calling: %w", err)
	}
	s.auth.setCookie(s.response, JWTString, int(s.auth.cookie.MaxAge.Seconds()))

	s.mu.Lock()
	previous := s.id
	s.id, s.userID, s.loggedIn = id, userID, true
	s.mu.Unlock()

	if previous != "" && previous != id {
		if err := s.auth.sessions.Destroy(ctx, previous); err != nil {
			logger.Log.Debugw("previous session not destroyed", "err", err)
		}
	}

	return nil
}

// Destroy clears the cookie and forgets the user, then removes the stored
// state. Only the store failure is reported.
func (s *Session) Destroy(ctx context.Context) error {
	s.mu.Lock()
	id := s.id
	s.id, s.userID, s.loggedIn = "", 0, false
	s.mu.Unlock()

	s.auth.setCookie(s.response, "", -1)

	if err := s.auth.sessions.Destroy(ctx, id); err != nil {
		return fmt.Errorf("in internal/auth/auth.go/Session.Destroy(): error while `s.auth.sessions.Destroy()` calling: %w", err)
	}

	return nil
}
