package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"rentalhub/internal/auth"
	"rentalhub/internal/service"
	"rentalhub/internal/store"
)

// Authenticator resolves the request identity: Authorization: Bearer <access>
// first, then the session cookie of the rendered site. No credentials = anonymous (nil).
type Authenticator struct {
	auth     service.AuthService
	sessions *store.SessionStore
	cookie   string
}

func NewAuthenticator(authService service.AuthService, sessions *store.SessionStore, cookieName string) *Authenticator {
	return &Authenticator{auth: authService, sessions: sessions, cookie: cookieName}
}

// Identify an invalid or expired bearer token is an authentication error,
// even on endpoints that allow anonymous access.
func (a *Authenticator) Identify(r *http.Request) (*auth.Identity, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, _ := strings.Cut(strings.TrimSpace(h), " ")
		if strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(token)
			if token == "" || strings.Contains(token, " ") {
				return nil, service.Unauthenticated("Invalid Authorization header.")
			}
			return a.auth.ResolveBearer(r.Context(), token)
		}
	}

	if a.sessions == nil {
		return nil, nil
	}
	c, err := r.Cookie(a.cookie)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	sess, err := a.sessions.Load(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			return nil, nil
		}
		return nil, fmt.Errorf("Authenticator.Identify: %w", err)
	}
	return sess.Identity(), nil
}
