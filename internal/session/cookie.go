package session

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/auth"
)

// DefaultCookie is used when no cookie name is configured.
const DefaultCookie = "bistro_session"

// Cookies writes and reads the session cookie.
type Cookies struct {
	Name   string
	Secure bool
}

// Set writes the session cookie for sess.
func (c Cookies) Set(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.Expires,
	})
}

// Clear expires the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
	})
}

// Token returns the cookie value, if any.
func (c Cookies) Token(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.name())
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c Cookies) name() string {
	if c.Name == "" {
		return DefaultCookie
	}
	return c.Name
}

// Middleware resolves the session cookie and stores the identity in the
// request context.  Stale cookies are cleared; lookup failures leave the
// caller anonymous.
func Middleware(s *Store, c Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := c.Token(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			id, err := s.Lookup(r.Context(), token)
			switch {
			case err == nil:
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			case errors.Is(err, ErrNoSession):
				c.Clear(w)
			default:
				zap.L().Error("session lookup", zap.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}
