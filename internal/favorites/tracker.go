package favorites

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propertyhub/web/internal/models"
)

// MarkStorage persists favorite marks across restarts.
type MarkStorage interface {
	SaveFavorite(mark models.FavoriteMark) error
	ListFavorites() ([]models.FavoriteMark, error)
	DeleteFavorite(propertyID string) error
}

// Tracker holds the local favorite marks and flips them optimistically: the
// UI value changes synchronously, the backend hears about it later through
// the queue. When the backend rejects a flip the mark rolls back, unless the
// user flipped again in the meantime, in which case the newer write wins.
type Tracker struct {
	mu      sync.RWMutex
	marks   map[string]models.FavoriteMark
	queue   *ToggleQueue
	storage MarkStorage
	logger  *logrus.Logger
}

func NewTracker(storage MarkStorage, queue *ToggleQueue, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Tracker{
		marks:   make(map[string]models.FavoriteMark),
		queue:   queue,
		storage: storage,
		logger:  logger,
	}
}

// Load restores persisted marks. Called once at startup, before any toggles.
func (t *Tracker) Load() error {
	marks, err := t.storage.ListFavorites()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, mark := range marks {
		t.marks[mark.PropertyID] = mark
	}

	t.logger.WithField("count", len(marks)).Info("Loaded favorite marks")
	return nil
}

// IsFavorite returns the current local value for a property.
func (t *Tracker) IsFavorite(propertyID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.marks[propertyID].Favorite
}

// Marks returns a copy of all current favorite marks.
func (t *Tracker) Marks() []models.FavoriteMark {
	t.mu.RLock()
	defer t.mu.RUnlock()

	marks := make([]models.FavoriteMark, 0, len(t.marks))
	for _, mark := range t.marks {
		marks = append(marks, mark)
	}
	return marks
}

// FavoriteIDs returns the properties currently marked as favorites.
func (t *Tracker) FavoriteIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0)
	for id, mark := range t.marks {
		if mark.Favorite {
			ids = append(ids, id)
		}
	}
	return ids
}

// Toggle flips the local value immediately and enqueues the flip for backend
// reconciliation. It returns the new local value. A full queue leaves the
// mark pending; the resync loop picks it up later.
func (t *Tracker) Toggle(propertyID string) bool {
	t.mu.Lock()
	mark := t.marks[propertyID]
	mark.PropertyID = propertyID
	mark.Favorite = !mark.Favorite
	mark.State = models.FavoritePending
	mark.UpdatedAt = time.Now()
	t.marks[propertyID] = mark
	t.mu.Unlock()

	t.persist(mark)

	toggle := NewToggle(propertyID, mark.Favorite)
	if err := t.queue.Push(toggle); err != nil {
		t.logger.WithError(err).WithField("property_id", propertyID).Warn("Could not enqueue favorite toggle")
	}

	return mark.Favorite
}

// Commit records backend acknowledgement of a toggle. A mark written after
// the toggle was enqueued is newer local state and is left alone.
func (t *Tracker) Commit(toggle *Toggle) {
	t.mu.Lock()
	mark, ok := t.marks[toggle.PropertyID]
	if !ok || mark.UpdatedAt.After(toggle.EnqueuedAt) {
		t.mu.Unlock()
		return
	}
	mark.State = models.FavoriteCommitted
	t.marks[toggle.PropertyID] = mark
	t.mu.Unlock()

	t.persist(mark)
}

// Rollback reverts a toggle the backend rejected, restoring the previous
// value and marking the mark failed. Newer local writes win over the
// rollback.
func (t *Tracker) Rollback(toggle *Toggle) {
	t.mu.Lock()
	mark, ok := t.marks[toggle.PropertyID]
	if !ok || mark.UpdatedAt.After(toggle.EnqueuedAt) {
		t.mu.Unlock()
		return
	}
	mark.Favorite = !toggle.Favorite
	mark.State = models.FavoriteFailed
	mark.UpdatedAt = time.Now()
	t.marks[toggle.PropertyID] = mark
	t.mu.Unlock()

	t.logger.WithFields(logrus.Fields{
		"property_id": toggle.PropertyID,
		"favorite":    mark.Favorite,
	}).Warn("Rolled back rejected favorite toggle")

	t.persist(mark)
}

// PendingSince returns toggles for marks that have sat unacknowledged for at
// least the given age, so the resync loop can re-enqueue them.
func (t *Tracker) PendingSince(age time.Duration) []*Toggle {
	cutoff := time.Now().Add(-age)

	t.mu.RLock()
	defer t.mu.RUnlock()

	toggles := make([]*Toggle, 0)
	for _, mark := range t.marks {
		if mark.State == models.FavoritePending && mark.UpdatedAt.Before(cutoff) {
			toggles = append(toggles, NewToggle(mark.PropertyID, mark.Favorite))
		}
	}
	return toggles
}

func (t *Tracker) persist(mark models.FavoriteMark) {
	if err := t.storage.SaveFavorite(mark); err != nil {
		t.logger.WithError(err).WithField("property_id", mark.PropertyID).Warn("Could not persist favorite mark")
	}
}
