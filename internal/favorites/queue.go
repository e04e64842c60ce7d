package favorites

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Toggle is one favorite flip awaiting backend acknowledgement.
type Toggle struct {
	ID         string
	PropertyID string
	Favorite   bool
	Attempts   int
	EnqueuedAt time.Time
}

// NewToggle builds a toggle for the given flip, stamped with the enqueue time
// so stale outcomes can be told apart from the current local value.
func NewToggle(propertyID string, favorite bool) *Toggle {
	return &Toggle{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		Favorite:   favorite,
		EnqueuedAt: time.Now(),
	}
}

// ToggleQueue is an in-memory queue of pending favorite flips
type ToggleQueue struct {
	items    chan *Toggle
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(*Toggle) error
}

// NewToggleQueue creates a new toggle queue with the specified buffer size
func NewToggleQueue(bufferSize int, logger *logrus.Logger) *ToggleQueue {
	return &ToggleQueue{
		items:    make(chan *Toggle, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(*Toggle) error, 0),
	}
}

// Push adds a toggle to the queue
func (q *ToggleQueue) Push(toggle *Toggle) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	// Non-blocking send to prevent deadlocks
	select {
	case q.items <- toggle:
		q.logger.WithFields(logrus.Fields{
			"property_id": toggle.PropertyID,
			"favorite":    toggle.Favorite,
		}).Debug("Pushed toggle to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each toggle
func (q *ToggleQueue) Subscribe(handler func(*Toggle) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *ToggleQueue) Start() {
	go q.process()
}

// process handles the queue processing loop
func (q *ToggleQueue) process() {
	for {
		select {
		case <-q.done:
			return
		case toggle, ok := <-q.items:
			// Close closes the channel; the zero receive is not a toggle.
			if !ok {
				return
			}
			q.processToggle(toggle)
		}
	}
}

// processToggle sends the toggle to all subscribed handlers
func (q *ToggleQueue) processToggle(toggle *Toggle) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(toggle); err != nil {
			q.logger.WithError(err).WithField("property_id", toggle.PropertyID).Error("Handler failed to process toggle")
		}
	}
}

// Close stops the queue and prevents new items from being added
func (q *ToggleQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.done)
	close(q.items)
	return nil
}

// Len returns the current number of toggles in the queue
func (q *ToggleQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ToggleQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
