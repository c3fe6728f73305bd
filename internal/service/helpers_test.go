package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/events"
	"rentalhub/internal/repository"
	"rentalhub/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	store  *repository.MemoryStore
	pub    *recordingPublisher
	tokens *auth.TokenManager

	auth         AuthService
	properties   PropertyService
	applications ApplicationService
	payments     PaymentService
	reviews      ReviewService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	st := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	tokens := auth.NewTokenManager("test-secret", 5*time.Minute, time.Hour)
	return &harness{
		store:        st,
		pub:          pub,
		tokens:       tokens,
		auth:         NewAuthService(st, tokens, store.NewTokenDenyList(store.NewMemoryKV()), logger),
		properties:   NewPropertyService(st, logger),
		applications: NewApplicationService(st, st, pub, logger),
		payments:     NewPaymentService(st, st, pub, logger),
		reviews:      NewReviewService(st, st, logger),
	}
}

// user registers a user directly in the store and returns its identity.
func (h *harness) user(t *testing.T, username string, role domain.Role) *auth.Identity {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	u, err := h.store.CreateUser(context.Background(), &domain.User{Username: username, Email: username + "@example.com", PasswordHash: hash, Role: role}, "")
	require.NoError(t, err)
	return auth.FromUser(u)
}

func (h *harness) property(t *testing.T, landlord *auth.Identity, available bool) *PropertyDTO {
	t.Helper()
	p, err := h.properties.Create(context.Background(), landlord, CreatePropertyRequest{
		Name: "Sunny Flat", Category: "apartment", Location: "Westlands", Price: "25000", IsAvailable: &available,
	})
	require.NoError(t, err)
	return p
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
