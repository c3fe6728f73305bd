package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"rentalhub/internal/domain"
	"rentalhub/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeb_LoginRequiredRedirects(t *testing.T) {
	app := newTestApp(t)
	c := app.browser(t)

	resp, _ := app.get(t, c, "/applications/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login/?next=%2Fapplications%2F", resp.Header.Get("Location"))

	resp, _ = app.get(t, c, "/properties/create/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login/?next=%2Fproperties%2Fcreate%2F", resp.Header.Get("Location"))
}

func TestWeb_RegisterLoginLogout(t *testing.T) {
	app := newTestApp(t)
	c := app.browser(t)

	resp, body := app.post(t, c, "/register/", url.Values{
		"username": {"bob"}, "email": {"bob@example.com"}, "role": {"landlord"},
		"password1": {"correct-horse"}, "password2": {"other-horse"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "didn&#39;t match")

	resp, _ = app.post(t, c, "/register/", url.Values{
		"username": {"bob"}, "email": {"bob@example.com"}, "role": {"landlord"},
		"password1": {"correct-horse"}, "password2": {"correct-horse"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = app.get(t, c, "/")
	assert.Contains(t, body, "Welcome, bob!")
	assert.Contains(t, body, "Signed in as bob (Landlord)")

	// the session cookie also authenticates the JSON API
	req, err := http.NewRequest(http.MethodGet, app.srv.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.post(t, c, "/logout/", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body = app.get(t, c, "/")
	assert.Contains(t, body, "You have been logged out.")
	assert.Contains(t, body, "Log in")

	other := app.browser(t)
	resp, body = app.post(t, other, "/login/", url.Values{"username": {"bob"}, "password": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "No active account found with the given credentials.")

	resp, _ = app.post(t, other, "/login/", url.Values{"username": {"bob"}, "password": {"correct-horse"}, "next": {"/applications/"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/applications/", resp.Header.Get("Location"))

	// off-site next is ignored
	resp, _ = app.post(t, app.browser(t), "/login/", url.Values{"username": {"bob"}, "password": {"correct-horse"}, "next": {"//evil.example"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestWeb_RentalFlow(t *testing.T) {
	app := newTestApp(t)
	bobToken := app.register(t, "bob", domain.RoleLandlord)
	app.register(t, "alice", domain.RoleTenant)

	bob := app.browser(t)
	resp, _ := app.post(t, bob, "/login/", url.Values{"username": {"bob"}, "password": {"correct-horse"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, body := app.post(t, bob, "/properties/create/", url.Values{"name": {""}, "category": {"house"}, "location": {"Karen"}, "price": {"-5"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "This field is required.")

	resp, _ = app.post(t, bob, "/properties/create/", url.Values{
		"name": {"Garden House"}, "category": {"house"}, "location": {"Karen"}, "price": {"120000"}, "is_available": {"on"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, env := app.call(t, http.MethodGet, "/api/properties", "", nil)
	var props PageResult[service.PropertyDTO]
	env.into(t, &props)
	require.Len(t, props.Items, 1)
	detail := fmt.Sprintf("/properties/%d/", props.Items[0].ID)

	_, body = app.get(t, bob, "/")
	assert.Contains(t, body, "Garden House")
	assert.Contains(t, body, "120000.00")

	alice := app.browser(t)
	resp, _ = app.post(t, alice, "/login/", url.Values{"username": {"alice"}, "password": {"correct-horse"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, body = app.get(t, alice, detail)
	assert.Contains(t, body, "/apply/")
	assert.NotContains(t, body, "/edit/")

	resp, _ = app.post(t, alice, detail+"apply/", url.Values{"message": {"Looks great"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, detail, resp.Header.Get("Location"))
	_, body = app.get(t, alice, detail)
	assert.Contains(t, body, "Your application has been submitted.")

	app.post(t, alice, detail+"apply/", url.Values{"message": {"again"}})
	_, body = app.get(t, alice, detail)
	assert.Contains(t, body, "You have already applied for this property.")

	resp, _ = app.post(t, alice, detail+"reviews/add/", url.Values{"rating": {"5"}, "comment": {"Lovely garden"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body = app.get(t, alice, detail)
	assert.Contains(t, body, "Lovely garden")

	_, env = app.call(t, http.MethodGet, "/api/applications", bobToken, nil)
	var apps PageResult[service.ApplicationDTO]
	env.into(t, &apps)
	require.Len(t, apps.Items, 1)
	appID := apps.Items[0].ID

	// paying before approval only flashes an error
	resp, _ = app.post(t, alice, fmt.Sprintf("/applications/%d/pay/", appID), url.Values{"amount": {"120000"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/applications/", resp.Header.Get("Location"))

	resp, _ = app.post(t, bob, fmt.Sprintf("/applications/%d/status/", appID), url.Values{"status": {"approved"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body = app.get(t, bob, "/applications/")
	assert.Contains(t, body, "Application for Garden House is now approved.")

	resp, _ = app.post(t, alice, fmt.Sprintf("/applications/%d/pay/", appID), url.Values{"amount": {"120000"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body = app.get(t, alice, "/applications/")
	assert.Contains(t, body, "Payment of 120000.00 received and pending confirmation.")

	resp, _ = app.post(t, alice, detail+"delete/", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body = app.get(t, alice, detail)
	assert.Contains(t, body, "Only the landlord of this property can delete it.")

	resp, _ = app.post(t, bob, detail+"delete/", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = app.get(t, bob, detail)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidationFields(t *testing.T) {
	fields, ok := validationFields(service.Duplicate("dup"))
	require.True(t, ok)
	assert.Equal(t, []string{"dup"}, fields["non_field_errors"])

	_, ok = validationFields(service.Forbidden("no"))
	assert.False(t, ok)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/applications/", safeNext("/applications/"))
	assert.Equal(t, "/", safeNext("https://evil.example"))
	assert.Equal(t, "/", safeNext("//evil.example"))
	assert.Equal(t, "/", safeNext(""))
}
