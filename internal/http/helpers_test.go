package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/events"
	"rentalhub/internal/repository"
	"rentalhub/internal/service"
	"rentalhub/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

type testApp struct {
	srv   *httptest.Server
	store *repository.MemoryStore
	kv    *store.MemoryKV
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := zap.NewNop()
	st := repository.NewMemoryStore()
	kv := store.NewMemoryKV()
	tokens := auth.NewTokenManager("test-secret", 5*time.Minute, time.Hour)
	sessions := store.NewSessionStore(kv, time.Hour)
	pub := events.NewNopPublisher(logger)

	svc := Services{
		Auth:         service.NewAuthService(st, tokens, store.NewTokenDenyList(kv), logger),
		Properties:   service.NewPropertyService(st, logger),
		Applications: service.NewApplicationService(st, st, pub, logger),
		Payments:     service.NewPaymentService(st, st, pub, logger),
		Reviews:      service.NewReviewService(st, st, logger),
	}
	web, err := NewWeb(svc, sessions, SessionCookie{Name: "sessionid"}, 10, logger)
	require.NoError(t, err)

	router := NewRouter(logger)
	router.RegisterAPIRoutes(NewAPI(svc, NewAuthenticator(svc.Auth, sessions, "sessionid"), 10, logger))
	router.RegisterHealthRoutes(NewHealthHandler(nil, PingFunc(kv.Ping), logger))
	router.RegisterWebRoutes(web)

	srv := httptest.NewServer(WithRequestLogging(router, logger))
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, store: st, kv: kv}
}

// envelope is the decoded Result of an /api response.
type envelope struct {
	Code    int                 `json:"code"`
	Type    string              `json:"type"`
	Message string              `json:"message"`
	Result  json.RawMessage     `json:"result"`
	Errors  map[string][]string `json:"errors"`
}

func (e envelope) into(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Result, out))
}

// call sends a JSON request with an optional bearer token.
func (a *testApp) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, a.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// register creates an account through the API and returns its access token.
func (a *testApp) register(t *testing.T, username string, role domain.Role) string {
	t.Helper()
	status, _ := a.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"role":     string(role),
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status)
	return a.login(t, username)
}

func (a *testApp) login(t *testing.T, username string) string {
	t.Helper()
	status, env := a.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, status)
	var pair auth.TokenPair
	env.into(t, &pair)
	return pair.AccessToken
}

// browser is a cookie-keeping client that does not follow redirects.
func (a *testApp) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}
