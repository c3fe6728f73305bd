package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/policy"
	"rentalhub/internal/search"
)

// MemoryStore implements every repository in process when the DB is disabled
// (local dev, service tests). It enforces the same keys and cascades as the schema.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time
	seq map[string]int64

	users        map[int64]domain.User
	profiles     map[int64]domain.Profile // user_id -> profile
	properties   map[int64]domain.Property
	applications map[int64]domain.RentalApplication
	payments     map[int64]domain.Payment
	reviews      map[int64]domain.Review
}

var (
	_ UsersRepository        = (*MemoryStore)(nil)
	_ PropertiesRepository   = (*MemoryStore)(nil)
	_ ApplicationsRepository = (*MemoryStore)(nil)
	_ PaymentsRepository     = (*MemoryStore)(nil)
	_ ReviewsRepository      = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		seq:          map[string]int64{},
		users:        map[int64]domain.User{},
		profiles:     map[int64]domain.Profile{},
		properties:   map[int64]domain.Property{},
		applications: map[int64]domain.RentalApplication{},
		payments:     map[int64]domain.Payment{},
		reviews:      map[int64]domain.Review{},
	}
}

// SetClock replaces the created_at source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func notFound(op string) error  { return fmt.Errorf("%s: %w", op, ErrNotFound) }
func duplicate(op string) error { return fmt.Errorf("%s: %w", op, ErrDuplicate) }

// ============================================
// users
// ============================================

func (s *MemoryStore) CreateUser(_ context.Context, u *domain.User, phone string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return nil, duplicate("MemoryStore.CreateUser")
		}
	}
	out := *u
	out.ID = s.nextID("users")
	out.DateJoined = s.now()
	s.users[out.ID] = out

	phone = strings.TrimSpace(phone)
	s.profiles[out.ID] = domain.Profile{
		ID:     s.nextID("profiles"),
		UserID: out.ID,
		Phone:  sql.NullString{String: phone, Valid: phone != ""},
	}
	return &out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("MemoryStore.GetUser")
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, notFound("MemoryStore.GetUserByUsername")
}

func (s *MemoryStore) GetProfile(_ context.Context, userID int64) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, notFound("MemoryStore.GetProfile")
	}
	return &p, nil
}

// ============================================
// properties
// ============================================

func (s *MemoryStore) property(id int64) (domain.Property, bool) {
	p, ok := s.properties[id]
	if ok {
		p.LandlordUsername = s.users[p.LandlordID].Username
	}
	return p, ok
}

func (s *MemoryStore) ListProperties(_ context.Context, c search.Criteria, page search.Page) ([]domain.Property, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Property, 0, len(s.properties))
	for id := range s.properties {
		p, _ := s.property(id)
		all = append(all, p)
	}
	matched := search.Filter(all, c)
	return search.Slice(matched, page), len(matched), nil
}

func (s *MemoryStore) GetProperty(_ context.Context, id int64) (*domain.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.property(id)
	if !ok {
		return nil, notFound("MemoryStore.GetProperty")
	}
	return &p, nil
}

func (s *MemoryStore) CreateProperty(_ context.Context, in *domain.Property) (*domain.Property, error) {
	const op = "MemoryStore.CreateProperty"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.LandlordID]; !ok {
		return nil, notFound(op)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%s: %w", op, ErrConstraint)
	}
	p := *in
	p.ID = s.nextID("properties")
	p.CreatedAt = s.now()
	s.properties[p.ID] = p

	out, _ := s.property(p.ID)
	return &out, nil
}

func (s *MemoryStore) UpdateProperty(_ context.Context, in *domain.Property) (*domain.Property, error) {
	const op = "MemoryStore.UpdateProperty"
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.properties[in.ID]
	if !ok {
		return nil, notFound(op)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%s: %w", op, ErrConstraint)
	}
	cur.Name = in.Name
	cur.Category = in.Category
	cur.Description = in.Description
	cur.Location = in.Location
	cur.Price = in.Price
	cur.IsAvailable = in.IsAvailable
	s.properties[cur.ID] = cur

	out, _ := s.property(cur.ID)
	return &out, nil
}

func (s *MemoryStore) DeleteProperty(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[id]; !ok {
		return notFound("MemoryStore.DeleteProperty")
	}
	delete(s.properties, id)

	// ON DELETE CASCADE
	for aid, a := range s.applications {
		if a.PropertyID != id {
			continue
		}
		for pid, pay := range s.payments {
			if pay.ApplicationID == aid {
				delete(s.payments, pid)
			}
		}
		delete(s.applications, aid)
	}
	for rid, r := range s.reviews {
		if r.PropertyID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

// ============================================
// rental applications
// ============================================

func (s *MemoryStore) application(id int64) (domain.RentalApplication, bool) {
	a, ok := s.applications[id]
	if ok {
		p := s.properties[a.PropertyID]
		a.PropertyName = p.Name
		a.LandlordID = p.LandlordID
		a.TenantUsername = s.users[a.TenantID].Username
	}
	return a, ok
}

func (s *MemoryStore) ListApplications(_ context.Context, v policy.Visibility, page search.Page) ([]domain.RentalApplication, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []domain.RentalApplication{}
	for id := range s.applications {
		a, _ := s.application(id)
		if v.Allows(policy.ForApplication(&a)) {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return search.Slice(all, page), len(all), nil
}

func (s *MemoryStore) GetApplication(_ context.Context, id int64) (*domain.RentalApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.application(id)
	if !ok {
		return nil, notFound("MemoryStore.GetApplication")
	}
	return &a, nil
}

func (s *MemoryStore) CreateApplication(_ context.Context, in *domain.RentalApplication) (*domain.RentalApplication, error) {
	const op = "MemoryStore.CreateApplication"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[in.PropertyID]; !ok {
		return nil, notFound(op)
	}
	if _, ok := s.users[in.TenantID]; !ok {
		return nil, notFound(op)
	}
	// UNIQUE (property_id, tenant_id)
	for _, a := range s.applications {
		if a.PropertyID == in.PropertyID && a.TenantID == in.TenantID {
			return nil, duplicate(op)
		}
	}
	a := domain.RentalApplication{
		ID:         s.nextID("rental_applications"),
		PropertyID: in.PropertyID,
		TenantID:   in.TenantID,
		Message:    in.Message,
		Status:     in.Status,
		CreatedAt:  s.now(),
	}
	if a.Status == "" {
		a.Status = domain.ApplicationPending
	}
	s.applications[a.ID] = a

	out, _ := s.application(a.ID)
	return &out, nil
}

func (s *MemoryStore) UpdateApplicationStatus(_ context.Context, id int64, status domain.ApplicationStatus) (*domain.RentalApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.applications[id]
	if !ok {
		return nil, notFound("MemoryStore.UpdateApplicationStatus")
	}
	a.Status = status
	s.applications[id] = a

	out, _ := s.application(id)
	return &out, nil
}

// ============================================
// payments
// ============================================

func (s *MemoryStore) payment(id int64) (domain.Payment, bool) {
	p, ok := s.payments[id]
	if ok {
		a := s.applications[p.ApplicationID]
		p.PropertyID = a.PropertyID
		p.TenantID = a.TenantID
		p.LandlordID = s.properties[a.PropertyID].LandlordID
	}
	return p, ok
}

func (s *MemoryStore) ListPayments(_ context.Context, v policy.Visibility, page search.Page) ([]domain.Payment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []domain.Payment{}
	for id := range s.payments {
		p, _ := s.payment(id)
		if v.Allows(policy.ForPayment(&p)) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return search.Slice(all, page), len(all), nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id int64) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payment(id)
	if !ok {
		return nil, notFound("MemoryStore.GetPayment")
	}
	return &p, nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, in *domain.Payment) (*domain.Payment, error) {
	const op = "MemoryStore.CreatePayment"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[in.ApplicationID]; !ok {
		return nil, notFound(op)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op, ErrConstraint)
	}
	p := domain.Payment{
		ID:            s.nextID("payments"),
		ApplicationID: in.ApplicationID,
		Amount:        in.Amount,
		Status:        domain.PaymentPending,
		CreatedAt:     s.now(),
	}
	s.payments[p.ID] = p

	out, _ := s.payment(p.ID)
	return &out, nil
}

// ============================================
// reviews
// ============================================

func (s *MemoryStore) review(id int64) (domain.Review, bool) {
	r, ok := s.reviews[id]
	if ok {
		r.TenantUsername = s.users[r.TenantID].Username
	}
	return r, ok
}

func (s *MemoryStore) ListReviews(_ context.Context, propertyID int64, page search.Page) ([]domain.Review, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []domain.Review{}
	for id, r := range s.reviews {
		if propertyID != 0 && r.PropertyID != propertyID {
			continue
		}
		rv, _ := s.review(id)
		all = append(all, rv)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return search.Slice(all, page), len(all), nil
}

func (s *MemoryStore) GetReview(_ context.Context, id int64) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.review(id)
	if !ok {
		return nil, notFound("MemoryStore.GetReview")
	}
	return &r, nil
}

func (s *MemoryStore) CreateReview(_ context.Context, in *domain.Review) (*domain.Review, error) {
	const op = "MemoryStore.CreateReview"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[in.PropertyID]; !ok {
		return nil, notFound(op)
	}
	if _, ok := s.users[in.TenantID]; !ok {
		return nil, notFound(op)
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, fmt.Errorf("%s: %w", op, ErrConstraint)
	}
	// UNIQUE (property_id, tenant_id)
	for _, r := range s.reviews {
		if r.PropertyID == in.PropertyID && r.TenantID == in.TenantID {
			return nil, duplicate(op)
		}
	}
	r := domain.Review{
		ID:         s.nextID("reviews"),
		PropertyID: in.PropertyID,
		TenantID:   in.TenantID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		CreatedAt:  s.now(),
	}
	s.reviews[r.ID] = r

	out, _ := s.review(r.ID)
	return &out, nil
}
