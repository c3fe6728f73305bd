package auth

import (
	"testing"
	"time"

	"rentalhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestHashPassword_RoundTrip(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", h)
	assert.True(t, CheckPassword(h, "s3cret-pass"))
	assert.False(t, CheckPassword(h, "wrong-pass"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	alice := &Identity{UserID: 7, Username: "alice", Role: domain.RoleTenant}

	pair, err := m.IssuePair(alice)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	got, err := m.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	claims, err := m.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RejectsWrongType(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	pair, err := m.IssuePair(&Identity{UserID: 1, Username: "bob", Role: domain.RoleLandlord})
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = m.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	issuerA := NewTokenManager("secret-a", time.Minute, time.Hour)
	issuerB := NewTokenManager("secret-b", time.Minute, time.Hour)
	tok, err := issuerA.IssueAccess(&Identity{UserID: 1, Username: "bob", Role: domain.RoleLandlord})
	require.NoError(t, err)

	_, err = issuerB.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuerB.ParseAccess("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	start := time.Now()
	m.now = func() time.Time { return start }
	tok, err := m.IssueAccess(&Identity{UserID: 1, Username: "bob", Role: domain.RoleLandlord})
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = m.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIdentity_RoleHelpers(t *testing.T) {
	var anon *Identity
	assert.False(t, anon.IsTenant())
	assert.False(t, anon.IsLandlord())
	assert.True(t, (&Identity{Role: domain.RoleTenant}).IsTenant())
	assert.True(t, (&Identity{Role: domain.RoleLandlord}).IsLandlord())
	assert.Nil(t, FromUser(nil))
}
