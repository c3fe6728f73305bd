package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	cases := map[service.Kind]int{
		service.KindValidation:     http.StatusBadRequest,
		service.KindAuthentication: http.StatusUnauthorized,
		service.KindPermission:     http.StatusForbidden,
		service.KindNotFound:       http.StatusNotFound,
		service.KindDuplicate:      http.StatusConflict,
		service.Kind(99):           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), kind.String())
	}
}

func TestWriteError_UnknownErrorIs500WithoutDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/properties", nil)
	writeError(rec, req, zap.NewNop(), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)

	status, env := app.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "role": "tenant", "password": "correct-horse", "phone": "0700",
	})
	require.Equal(t, http.StatusCreated, status)
	var user service.UserDTO
	env.into(t, &user)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, domain.RoleTenant, user.Role)
	assert.Equal(t, "0700", user.Phone)

	status, env = app.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "role": "tenant", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Errors, "username")

	status, env = app.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bad name", "email": "nope", "role": "admin", "password": "1234",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	for _, f := range []string{"username", "email", "role", "password"} {
		assert.Contains(t, env.Errors, f)
	}

	status, _ = app.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = app.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, status)
	var pair auth.TokenPair
	env.into(t, &pair)
	assert.Equal(t, "Bearer", pair.TokenType)

	status, env = app.call(t, http.MethodGet, "/api/auth/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	env.into(t, &user)
	assert.Equal(t, "alice", user.Username)

	status, _ = app.call(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = app.call(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	// a refresh token is not an access token
	status, _ = app.call(t, http.MethodGet, "/api/auth/me", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = app.call(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh": pair.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	var refreshed service.RefreshResponse
	env.into(t, &refreshed)
	assert.NotEmpty(t, refreshed.AccessToken)

	status, _ = app.call(t, http.MethodPost, "/api/auth/logout", "", map[string]string{"refresh": pair.RefreshToken})
	assert.Equal(t, http.StatusOK, status)
	status, _ = app.call(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = app.call(t, http.MethodGet, "/api/auth/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestRentalScenarioOverAPI(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice", domain.RoleTenant)
	bob := app.register(t, "bob", domain.RoleLandlord)
	carol := app.register(t, "carol", domain.RoleTenant)

	// price as a JSON number
	status, env := app.call(t, http.MethodPost, "/api/properties", bob, `{"name":"Sunny Flat","category":"Apartment","location":"Westlands","price":25000}`)
	require.Equal(t, http.StatusCreated, status)
	var prop service.PropertyDTO
	env.into(t, &prop)
	assert.Equal(t, "25000.00", prop.Price)
	assert.Equal(t, domain.CategoryApartment, prop.Category)
	assert.True(t, prop.IsAvailable)

	status, env = app.call(t, http.MethodPost, "/api/applications", alice, map[string]any{"property": prop.ID, "message": "hi"})
	require.Equal(t, http.StatusCreated, status)
	var application service.ApplicationDTO
	env.into(t, &application)
	assert.Equal(t, domain.ApplicationPending, application.Status)

	status, _ = app.call(t, http.MethodPost, "/api/applications", alice, map[string]any{"property": prop.ID})
	assert.Equal(t, http.StatusConflict, status)

	appPath := fmt.Sprintf("/api/applications/%d", application.ID)
	status, _ = app.call(t, http.MethodPatch, appPath, alice, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, status)
	status, env = app.call(t, http.MethodPatch, appPath, bob, map[string]string{"status": "approved", "message": "changed"})
	require.Equal(t, http.StatusOK, status)
	env.into(t, &application)
	assert.Equal(t, domain.ApplicationApproved, application.Status)
	assert.Equal(t, "hi", application.Message)

	status, _ = app.call(t, http.MethodPost, "/api/payments", carol, map[string]any{"application": application.ID, "amount": "5000"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = app.call(t, http.MethodPost, "/api/payments", alice, map[string]any{"application": application.ID, "amount": 0})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = app.call(t, http.MethodPost, "/api/payments", alice, map[string]any{"application": application.ID, "amount": 5000})
	require.Equal(t, http.StatusCreated, status)
	var pay service.PaymentDTO
	env.into(t, &pay)
	assert.Equal(t, domain.PaymentPending, pay.Status)
	assert.Equal(t, "5000.00", pay.Amount)

	status, env = app.call(t, http.MethodGet, "/api/payments", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var payments PageResult[service.PaymentDTO]
	env.into(t, &payments)
	assert.Equal(t, 1, payments.Count)

	status, _ = app.call(t, http.MethodGet, fmt.Sprintf("/api/payments/%d", pay.ID), carol, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = app.call(t, http.MethodGet, "/api/applications/", carol, nil)
	require.Equal(t, http.StatusOK, status)
	var apps PageResult[service.ApplicationDTO]
	env.into(t, &apps)
	assert.Zero(t, apps.Count)
	assert.NotNil(t, apps.Items)
}

func TestPropertyEndpoints(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice", domain.RoleTenant)
	bob := app.register(t, "bob", domain.RoleLandlord)
	dave := app.register(t, "dave", domain.RoleLandlord)

	body := map[string]any{"name": "Cottage", "category": "house", "location": "Karen", "price": "90000.5", "is_available": false}
	status, _ := app.call(t, http.MethodPost, "/api/properties", "", body)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = app.call(t, http.MethodPost, "/api/properties", alice, body)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := app.call(t, http.MethodPost, "/api/properties", bob, body)
	require.Equal(t, http.StatusCreated, status)
	var cottage service.PropertyDTO
	env.into(t, &cottage)
	assert.False(t, cottage.IsAvailable)

	status, env = app.call(t, http.MethodPost, "/api/properties", bob, map[string]any{"name": "Studio", "category": "bedsitter", "location": "CBD", "price": 8000})
	require.Equal(t, http.StatusCreated, status)

	status, env = app.call(t, http.MethodGet, "/api/properties?is_available=true", "", nil)
	require.Equal(t, http.StatusOK, status)
	var page PageResult[service.PropertyDTO]
	env.into(t, &page)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "Studio", page.Items[0].Name)
	assert.Equal(t, 10, page.Size)

	status, env = app.call(t, http.MethodGet, "/api/properties?q=karen&category=HOUSE", "", nil)
	require.Equal(t, http.StatusOK, status)
	env.into(t, &page)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, cottage.ID, page.Items[0].ID)

	status, env = app.call(t, http.MethodGet, "/api/properties?min_price=1e10000000", "", nil)
	require.Equal(t, http.StatusOK, status)
	env.into(t, &page)
	assert.Equal(t, 2, page.Count, "out-of-range price is ignored")

	status, env = app.call(t, http.MethodGet, "/api/properties?page=9223372036854775807", "", nil)
	require.Equal(t, http.StatusOK, status)
	env.into(t, &page)
	assert.Equal(t, 2, page.Count)
	assert.Empty(t, page.Items)

	path := fmt.Sprintf("/api/properties/%d", cottage.ID)
	status, _ = app.call(t, http.MethodPatch, path, dave, map[string]any{"price": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = app.call(t, http.MethodPatch, path, bob, map[string]any{"is_available": true})
	require.Equal(t, http.StatusOK, status)
	env.into(t, &cottage)
	assert.True(t, cottage.IsAvailable)
	assert.Equal(t, "90000.50", cottage.Price)

	// PUT replaces the whole record: omitted required fields fail
	status, env = app.call(t, http.MethodPut, path, bob, map[string]any{"name": "Cottage"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "location")
	assert.Contains(t, env.Errors, "price")

	status, _ = app.call(t, http.MethodPost, path, bob, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	status, _ = app.call(t, http.MethodGet, "/api/properties/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = app.call(t, http.MethodPost, "/api/properties", bob, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = app.call(t, http.MethodDelete, path, dave, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = app.call(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = app.call(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReviewEndpoints(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice", domain.RoleTenant)
	bob := app.register(t, "bob", domain.RoleLandlord)

	status, env := app.call(t, http.MethodPost, "/api/properties", bob, map[string]any{"name": "Flat", "category": "apartment", "location": "CBD", "price": 100})
	require.Equal(t, http.StatusCreated, status)
	var prop service.PropertyDTO
	env.into(t, &prop)

	status, _ = app.call(t, http.MethodPost, "/api/reviews", bob, map[string]any{"property": prop.ID, "rating": 5})
	assert.Equal(t, http.StatusForbidden, status)
	status, env = app.call(t, http.MethodPost, "/api/reviews", alice, map[string]any{"property": prop.ID, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "rating")
	status, env = app.call(t, http.MethodPost, "/api/reviews", alice, map[string]any{"property": "x", "rating": 4})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "property")

	status, _ = app.call(t, http.MethodPost, "/api/reviews", alice, map[string]any{"property": prop.ID, "rating": 4, "comment": "ok"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = app.call(t, http.MethodPost, "/api/reviews", alice, map[string]any{"property": prop.ID, "rating": 5})
	assert.Equal(t, http.StatusConflict, status)

	status, env = app.call(t, http.MethodGet, fmt.Sprintf("/api/properties/%d/reviews", prop.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var page PageResult[service.ReviewDTO]
	env.into(t, &page)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, 4, page.Items[0].Rating)

	status, env = app.call(t, http.MethodGet, "/api/reviews?property=abc", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Result), `"items":[]`)
	env.into(t, &page)
	assert.Zero(t, page.Count)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Size)

	status, _ = app.call(t, http.MethodGet, "/api/properties/999/reviews", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = app.call(t, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

type downPinger struct{}

func (downPinger) PingContext(context.Context) error { return errors.New("connection refused") }

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	status, env := app.call(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, status)
	var checks map[string]string
	env.into(t, &checks)
	assert.Equal(t, map[string]string{"database": "memory", "kv": "up"}, checks)

	rec := httptest.NewRecorder()
	NewHealthHandler(downPinger{}, nil, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"down"`)
}
