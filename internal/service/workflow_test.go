package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rentalhub/internal/domain"
	"rentalhub/internal/events"
	"rentalhub/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var firstPage = search.Page{Number: 1, Size: 10}

// alice applies to bob's property, bob approves, carol cannot pay, alice pays 5000.
func TestRentalScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	carol := h.user(t, "carol", domain.RoleTenant)
	prop := h.property(t, bob, true)

	app, err := h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: prop.ID, Message: "I'd like to rent"})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPending, app.Status)

	app, err = h.applications.UpdateStatus(ctx, bob, app.ID, UpdateStatusRequest{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, app.Status)

	_, err = h.payments.Pay(ctx, carol, PayRequest{ApplicationID: app.ID, Amount: "5000"})
	assert.True(t, IsKind(err, KindPermission))

	pay, err := h.payments.Pay(ctx, alice, PayRequest{ApplicationID: app.ID, Amount: "5000"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, pay.Status)
	assert.Equal(t, "5000.00", pay.Amount)
	assert.Nil(t, pay.TransactionID)

	assert.Equal(t, []string{events.ApplicationSubmitted, events.ApplicationStatusChanged, events.PaymentCreated}, h.pub.types())
}

func TestApply_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	open := h.property(t, bob, true)
	closed := h.property(t, bob, false)

	_, err := h.applications.Apply(ctx, nil, ApplyRequest{PropertyID: open.ID})
	assert.True(t, IsKind(err, KindAuthentication))

	_, err = h.applications.Apply(ctx, bob, ApplyRequest{PropertyID: open.ID})
	assert.True(t, IsKind(err, KindPermission), "landlords cannot apply")

	_, err = h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: 999})
	assert.True(t, IsKind(err, KindNotFound))

	_, err = h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: closed.ID})
	assert.True(t, IsKind(err, KindValidation))

	_, err = h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: open.ID})
	require.NoError(t, err)
	_, err = h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: open.ID})
	assert.True(t, IsKind(err, KindDuplicate))

	res, err := h.applications.List(ctx, alice, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total, "exactly one application row")
}

// A tenant that is also the landlord of the property can only happen through
// stale data; the self-application rule still holds.
func TestApply_OwnPropertyRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bob := h.user(t, "bob", domain.RoleLandlord)
	prop := h.property(t, bob, true)

	asTenant := *bob
	asTenant.Role = domain.RoleTenant
	_, err := h.applications.Apply(ctx, &asTenant, ApplyRequest{PropertyID: prop.ID})
	assert.True(t, IsKind(err, KindValidation))
}

func TestApply_ConcurrentDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	prop := h.property(t, bob, true)

	const n = 10
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: prop.ID})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, IsKind(err, KindDuplicate))
	}
	assert.Equal(t, 1, ok)
}

func TestUpdateStatus_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	dave := h.user(t, "dave", domain.RoleLandlord)
	prop := h.property(t, bob, true)
	app, err := h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: prop.ID, Message: "original"})
	require.NoError(t, err)

	_, err = h.applications.UpdateStatus(ctx, dave, app.ID, UpdateStatusRequest{Status: "approved"})
	assert.True(t, IsKind(err, KindPermission))
	_, err = h.applications.UpdateStatus(ctx, alice, app.ID, UpdateStatusRequest{Status: "approved"})
	assert.True(t, IsKind(err, KindPermission))
	_, err = h.applications.UpdateStatus(ctx, nil, app.ID, UpdateStatusRequest{Status: "approved"})
	assert.True(t, IsKind(err, KindAuthentication))
	_, err = h.applications.UpdateStatus(ctx, bob, 999, UpdateStatusRequest{Status: "approved"})
	assert.True(t, IsKind(err, KindNotFound))

	for _, bad := range []string{"", "accepted", "APPROVED!"} {
		_, err = h.applications.UpdateStatus(ctx, bob, app.ID, UpdateStatusRequest{Status: bad})
		assert.True(t, IsKind(err, KindValidation), bad)
	}

	updated, err := h.applications.UpdateStatus(ctx, bob, app.ID, UpdateStatusRequest{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationRejected, updated.Status)
	assert.Equal(t, "original", updated.Message)
}

func TestApplications_ScopedVisibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	carol := h.user(t, "carol", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	dave := h.user(t, "dave", domain.RoleLandlord)
	prop := h.property(t, bob, true)

	app, err := h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: prop.ID})
	require.NoError(t, err)

	_, err = h.applications.List(ctx, nil, firstPage)
	assert.True(t, IsKind(err, KindAuthentication))

	res, err := h.applications.List(ctx, alice, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	res, err = h.applications.List(ctx, bob, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	res, err = h.applications.List(ctx, carol, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	res, err = h.applications.List(ctx, dave, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	_, err = h.applications.Get(ctx, carol, app.ID)
	assert.True(t, IsKind(err, KindNotFound))
	got, err := h.applications.Get(ctx, bob, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.TenantUsername)
}

func TestPay_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	carol := h.user(t, "carol", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	prop := h.property(t, bob, true)
	app, err := h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: prop.ID})
	require.NoError(t, err)

	for _, amount := range []string{"0", "-10", "abc", ""} {
		_, err = h.payments.Pay(ctx, alice, PayRequest{ApplicationID: app.ID, Amount: amount})
		assert.True(t, IsKind(err, KindValidation), amount)
	}

	_, err = h.payments.Pay(ctx, carol, PayRequest{ApplicationID: app.ID, Amount: "100"})
	assert.True(t, IsKind(err, KindPermission))
	_, err = h.payments.Pay(ctx, bob, PayRequest{ApplicationID: app.ID, Amount: "100"})
	assert.True(t, IsKind(err, KindPermission))

	// still pending
	_, err = h.payments.Pay(ctx, alice, PayRequest{ApplicationID: app.ID, Amount: "100"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = h.applications.UpdateStatus(ctx, bob, app.ID, UpdateStatusRequest{Status: "rejected"})
	require.NoError(t, err)
	_, err = h.payments.Pay(ctx, alice, PayRequest{ApplicationID: app.ID, Amount: "100"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = h.payments.Pay(ctx, alice, PayRequest{ApplicationID: 999, Amount: "100"})
	assert.True(t, IsKind(err, KindNotFound))
	_, err = h.payments.Pay(ctx, nil, PayRequest{ApplicationID: app.ID, Amount: "100"})
	assert.True(t, IsKind(err, KindAuthentication))

	res, err := h.payments.List(ctx, alice, firstPage)
	require.NoError(t, err)
	assert.Zero(t, res.Total, "no partial writes")
}

func TestPay_PublishFailureDoesNotFailRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	prop := h.property(t, bob, true)
	app, err := h.applications.Apply(ctx, alice, ApplyRequest{PropertyID: prop.ID})
	require.NoError(t, err)
	_, err = h.applications.UpdateStatus(ctx, bob, app.ID, UpdateStatusRequest{Status: "approved"})
	require.NoError(t, err)

	h.pub.err = errors.New("redis down")
	pay, err := h.payments.Pay(ctx, alice, PayRequest{ApplicationID: app.ID, Amount: "5000.50"})
	require.NoError(t, err)
	assert.Equal(t, "5000.50", pay.Amount)

	res, err := h.payments.List(ctx, bob, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total, "landlord sees payments on own property")

	got, err := h.payments.Get(ctx, alice, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, pay.ID, got.ID)
}

func TestReview_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice", domain.RoleTenant)
	bob := h.user(t, "bob", domain.RoleLandlord)
	prop := h.property(t, bob, true)

	_, err := h.reviews.Create(ctx, bob, CreateReviewRequest{PropertyID: prop.ID, Rating: "5"})
	assert.True(t, IsKind(err, KindPermission))
	_, err = h.reviews.Create(ctx, nil, CreateReviewRequest{PropertyID: prop.ID, Rating: "5"})
	assert.True(t, IsKind(err, KindAuthentication))

	for _, bad := range []string{"0", "6", "4.5", "-1", "five", ""} {
		_, err = h.reviews.Create(ctx, alice, CreateReviewRequest{PropertyID: prop.ID, Rating: bad})
		assert.True(t, IsKind(err, KindValidation), bad)
	}

	_, err = h.reviews.Create(ctx, alice, CreateReviewRequest{PropertyID: 999, Rating: "4"})
	assert.True(t, IsKind(err, KindNotFound))

	r, err := h.reviews.Create(ctx, alice, CreateReviewRequest{PropertyID: prop.ID, Rating: "4.0", Comment: " nice "})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Rating)
	assert.Equal(t, "nice", r.Comment)

	_, err = h.reviews.Create(ctx, alice, CreateReviewRequest{PropertyID: prop.ID, Rating: "5"})
	assert.True(t, IsKind(err, KindDuplicate))

	res, err := h.reviews.List(ctx, nil, prop.ID, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	got, err := h.reviews.Get(ctx, nil, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.TenantUsername)
}

func TestError_Formatting(t *testing.T) {
	err := Validation("Invalid input.").WithField("b", "bad b").WithField("a", "bad a")
	assert.Equal(t, "validation: Invalid input.; a: bad a; b: bad b", err.Error())

	wrapped := Duplicate("dup").Wrap(errors.New("pq: 23505"))
	assert.ErrorContains(t, wrapped, "pq: 23505")
	k, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindDuplicate, k)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Nil(t, FieldErrors{}.Err())
}
