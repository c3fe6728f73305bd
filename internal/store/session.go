package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"

	"github.com/google/uuid"
)

const sessionKeyPrefix = "session:"

var ErrNoSession = errors.New("session not found")

// Flash levels, rendered as CSS classes.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Session server-side state behind the session cookie. UserID 0 is anonymous.
type Session struct {
	ID        string      `json:"-"`
	UserID    int64       `json:"user_id,omitempty"`
	Username  string      `json:"username,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Flashes   []Flash     `json:"flashes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Identity returns the logged-in actor, or nil.
func (s *Session) Identity() *auth.Identity {
	if s == nil || s.UserID == 0 {
		return nil
	}
	return &auth.Identity{UserID: s.UserID, Username: s.Username, Role: s.Role}
}

func (s *Session) AddFlash(level, message string) {
	s.Flashes = append(s.Flashes, Flash{Level: level, Message: message})
}

// PopFlashes returns and clears the pending messages.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// SessionStore keeps sessions as JSON under session:<id> with a sliding TTL.
type SessionStore struct {
	kv  KV
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(kv KV, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: kv, ttl: ttl, now: time.Now}
}

func (s *SessionStore) TTL() time.Duration { return s.ttl }

// New returns an unsaved anonymous session with a fresh id.
func (s *SessionStore) New() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
}

func (s *SessionStore) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	raw, err := s.kv.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("SessionStore.Load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// unreadable session: start over
		return nil, ErrNoSession
	}
	sess.ID = id
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("SessionStore.Save: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+sess.ID, string(b), s.ttl); err != nil {
		return fmt.Errorf("SessionStore.Save: %w", err)
	}
	return nil
}

// Rotate moves sess to a new id (on login) and deletes the old key.
func (s *SessionStore) Rotate(ctx context.Context, sess *Session) error {
	old := sess.ID
	sess.ID = uuid.NewString()
	if err := s.Save(ctx, sess); err != nil {
		return err
	}
	if old != "" {
		if err := s.kv.Del(ctx, sessionKeyPrefix+old); err != nil {
			return fmt.Errorf("SessionStore.Rotate: %w", err)
		}
	}
	return nil
}

func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.kv.Del(ctx, sessionKeyPrefix+id); err != nil {
		return fmt.Errorf("SessionStore.Destroy: %w", err)
	}
	return nil
}
