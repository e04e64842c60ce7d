package favorites

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propertyhub/web/config"
	"propertyhub/web/internal/backend"
)

type favoriteAPI interface {
	SetFavorite(ctx context.Context, propertyID string, favorite bool) error
}

// Syncer reconciles queued favorite toggles with the backend. Transient
// failures are retried with a delay; a toggle the backend refuses outright,
// or that exhausts its retries, is rolled back on the tracker.
type Syncer struct {
	api       favoriteAPI
	tracker   *Tracker
	queue     *ToggleQueue
	config    *config.Config
	logger    *logrus.Logger
	mu        sync.Mutex
	stopped   bool
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSyncer(api favoriteAPI, tracker *Tracker, queue *ToggleQueue, cfg *config.Config, logger *logrus.Logger) *Syncer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Syncer{
		api:     api,
		tracker: tracker,
		queue:   queue,
		config:  cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes the syncer to the toggle queue.
func (s *Syncer) Start() {
	s.queue.Subscribe(func(toggle *Toggle) error {
		// The Add must not race Stop's Wait, so both run under the mutex.
		// A toggle arriving after Stop stays pending for the resync loop.
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			s.logger.WithField("property_id", toggle.PropertyID).Debug("Syncer stopped, leaving toggle pending")
			return nil
		}
		s.waitGroup.Add(1)
		s.mu.Unlock()

		defer s.waitGroup.Done()
		return s.reconcile(toggle)
	})
}

// Stop waits for in-flight reconciliations and releases the syncer.
func (s *Syncer) Stop() {
	s.cancel()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.waitGroup.Wait()
}

// reconcile reports one toggle to the backend with retry logic. Stale
// outcomes are ignored by the tracker's last-write-wins checks.
func (s *Syncer) reconcile(toggle *Toggle) error {
	var err error
	for attempt := 0; attempt <= s.config.FavoriteSync.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Infof("Retrying favorite sync, attempt %d of %d", attempt, s.config.FavoriteSync.MaxRetries)
			select {
			case <-s.ctx.Done():
				return s.ctx.Err()
			case <-time.After(time.Duration(s.config.FavoriteSync.RetryDelay) * time.Second):
			}
		}

		toggle.Attempts++
		err = s.api.SetFavorite(s.ctx, toggle.PropertyID, toggle.Favorite)
		if err == nil {
			s.tracker.Commit(toggle)
			s.logger.WithFields(logrus.Fields{
				"property_id": toggle.PropertyID,
				"favorite":    toggle.Favorite,
				"attempts":    toggle.Attempts,
			}).Info("Favorite toggle acknowledged")
			return nil
		}

		// Rejections won't succeed on retry; only transport failures might.
		if !backend.IsNetwork(err) {
			break
		}

		s.logger.WithError(err).WithField("property_id", toggle.PropertyID).Error("Favorite sync failed")
	}

	s.logger.WithError(err).WithFields(logrus.Fields{
		"property_id": toggle.PropertyID,
		"attempts":    toggle.Attempts,
	}).Error("Favorite toggle rejected, rolling back")
	s.tracker.Rollback(toggle)
	return err
}
