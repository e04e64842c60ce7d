package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/web/internal/models"
)

// memoryStorage is an in-memory Storage for tests. loadErr simulates corrupt
// persisted state.
type memoryStorage struct {
	saved   *models.Session
	loadErr error
}

func (m *memoryStorage) SaveSession(sess models.Session) error {
	m.saved = &sess
	return nil
}

func (m *memoryStorage) LoadSession() (models.Session, error) {
	if m.loadErr != nil {
		return models.Session{}, m.loadErr
	}
	if m.saved == nil {
		return models.Session{}, nil
	}
	return *m.saved, nil
}

func (m *memoryStorage) ClearSession() error {
	m.saved = nil
	return nil
}

func testUser() models.User {
	return models.User{
		ID:    "u1",
		Email: "user@example.com",
		Name:  "Rita Regular",
		Role:  models.RoleRegularUser,
	}
}

func TestStore_LoginSetsAuthenticated(t *testing.T) {
	store := NewStore(&memoryStorage{}, logrus.New())

	assert.False(t, store.IsAuthenticated())
	store.Login("token-abc", testUser())

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "token-abc", store.Token())

	snap := store.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "u1", snap.User.ID)
}

func TestStore_LoginPersistsAndRehydrateRestores(t *testing.T) {
	storage := &memoryStorage{}

	first := NewStore(storage, logrus.New())
	first.Login("token-abc", testUser())

	// A fresh process over the same storage restores the identical tuple
	second := NewStore(storage, logrus.New())
	second.Rehydrate()

	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, "token-abc", second.Token())
	assert.Equal(t, testUser(), *second.Snapshot().User)
}

func TestStore_LogoutClearsEverything(t *testing.T) {
	storage := &memoryStorage{}
	store := NewStore(storage, logrus.New())
	store.Login("token-abc", testUser())

	store.Logout()

	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Token())
	assert.Nil(t, store.Snapshot().User)

	// Token and user are cleared together in storage as well
	fresh := NewStore(storage, logrus.New())
	fresh.Rehydrate()
	assert.False(t, fresh.IsAuthenticated())
}

func TestStore_LogoutIdempotent(t *testing.T) {
	store := NewStore(&memoryStorage{}, logrus.New())

	store.Logout()
	store.Logout()
	assert.False(t, store.IsAuthenticated())
}

func TestStore_RehydrateCorruptStorageDegradesToLoggedOut(t *testing.T) {
	storage := &memoryStorage{loadErr: errors.New("disk corrupt")}
	store := NewStore(storage, logrus.New())

	store.Rehydrate()
	assert.False(t, store.IsAuthenticated())
}

func TestStore_RehydrateRunsOnce(t *testing.T) {
	storage := &memoryStorage{}
	store := NewStore(storage, logrus.New())
	store.Rehydrate()

	// A login after rehydration must not be clobbered by a second call
	store.Login("token-abc", testUser())
	store.Rehydrate()

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "token-abc", store.Token())
}

func TestStore_SnapshotIsImmutable(t *testing.T) {
	store := NewStore(&memoryStorage{}, logrus.New())
	store.Login("token-abc", testUser())

	snap := store.Snapshot()
	snap.User.Name = "mutated"

	assert.Equal(t, "Rita Regular", store.Snapshot().User.Name)
}

func TestTokenExpiry(t *testing.T) {
	assert.Nil(t, tokenExpiry("opaque-token"))

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": expires.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got := tokenExpiry(signed)
	require.NotNil(t, got)
	assert.True(t, got.Equal(expires))
}
