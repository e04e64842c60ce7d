package session

import (
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"propertyhub/web/internal/models"
)

// Storage persists the session tuple across restarts.
type Storage interface {
	SaveSession(models.Session) error
	LoadSession() (models.Session, error)
	ClearSession() error
}

// Store holds the process-wide authentication state. Login, Logout and
// Rehydrate are the only mutations; every other component reads an immutable
// snapshot. The session is persisted on every change and restored exactly
// once at boot.
type Store struct {
	mu      sync.RWMutex
	current models.Session

	rehydrate sync.Once
	storage   Storage
	logger    *logrus.Logger
}

func NewStore(storage Storage, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Store{storage: storage, logger: logger}
}

// Login unconditionally replaces the current session and persists it. The
// token is stored as received; trust is deferred to the backend's responses.
func (s *Store) Login(token string, user models.User) {
	s.mu.Lock()
	s.current = models.Session{Token: token, User: &user}
	snapshot := s.current
	s.mu.Unlock()

	if err := s.storage.SaveSession(snapshot); err != nil {
		s.logger.WithError(err).Warn("Session persisted in memory only; it will not survive a restart")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("Session established")
}

// Logout clears the session and its persisted copy. Calling it on an already
// empty session is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	wasAuthenticated := s.current.IsAuthenticated()
	s.current = models.Session{}
	s.mu.Unlock()

	if err := s.storage.ClearSession(); err != nil {
		s.logger.WithError(err).Warn("Failed to clear persisted session")
	}

	if wasAuthenticated {
		s.logger.Info("Session cleared")
	}
}

// Rehydrate restores the persisted session. It runs at most once per process
// and never fails: corrupt or missing storage degrades to a logged-out
// session. Call it before serving any gated request.
func (s *Store) Rehydrate() {
	s.rehydrate.Do(func() {
		persisted, err := s.storage.LoadSession()
		if err != nil {
			s.logger.WithError(err).Warn("Could not restore persisted session; starting logged out")
			return
		}
		if !persisted.IsAuthenticated() {
			s.logger.Debug("No persisted session to restore")
			return
		}

		s.mu.Lock()
		s.current = persisted
		s.mu.Unlock()

		fields := logrus.Fields{
			"user_id": persisted.User.ID,
			"role":    persisted.User.Role,
		}
		// The token is not validated client-side, but its expiry claim is
		// worth surfacing: the backend will reject a stale credential.
		if expiry := tokenExpiry(persisted.Token); expiry != nil {
			fields["token_expires"] = expiry.Format(time.RFC3339)
			if expiry.Before(time.Now()) {
				s.logger.WithFields(fields).Warn("Restored session token is past its expiry")
				return
			}
		}
		s.logger.WithFields(fields).Info("Session restored")
	})
}

// Snapshot returns an immutable copy of the current session.
func (s *Store) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.current
	if snapshot.User != nil {
		user := *snapshot.User
		snapshot.User = &user
	}
	return snapshot
}

// IsAuthenticated reports whether both a token and a user are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsAuthenticated()
}

// Token returns the current bearer credential, or "" when logged out. It
// satisfies the backend client's token source.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// tokenExpiry reads the exp claim without verifying the signature. Opaque
// non-JWT tokens yield nil.
func tokenExpiry(token string) *time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil
	}
	return &expiry.Time
}
