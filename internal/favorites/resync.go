package favorites

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Resync periodically re-enqueues favorite marks that stayed pending, e.g.
// because the queue was full at toggle time or the process restarted with
// unacknowledged flips on disk.
type Resync struct {
	tracker  *Tracker
	queue    *ToggleQueue
	interval time.Duration
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewResync(tracker *Tracker, queue *ToggleQueue, interval time.Duration, logger *logrus.Logger) *Resync {
	return &Resync{
		tracker:  tracker,
		queue:    queue,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic re-enqueue loop.
func (r *Resync) Start() {
	r.wg.Add(1)
	go r.run()
}

func (r *Resync) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Startup pass picks up marks persisted before the last shutdown.
	r.enqueueStuck()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.enqueueStuck()
		}
	}
}

// enqueueStuck re-enqueues marks that have been pending for at least one
// full interval.
func (r *Resync) enqueueStuck() {
	toggles := r.tracker.PendingSince(r.interval)
	if len(toggles) == 0 {
		return
	}

	r.logger.WithField("count", len(toggles)).Info("Re-enqueueing stuck favorite toggles")
	for _, toggle := range toggles {
		if err := r.queue.Push(toggle); err != nil {
			r.logger.WithError(err).WithField("property_id", toggle.PropertyID).Warn("Could not re-enqueue favorite toggle")
		}
	}
}

// Stop gracefully stops the resync loop.
func (r *Resync) Stop() {
	close(r.stopChan)
	r.wg.Wait()
}
