package favorites

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewToggleQueue(t *testing.T) {
	logger := logrus.New()
	q := NewToggleQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestToggleQueue_Push(t *testing.T) {
	logger := logrus.New()
	q := NewToggleQueue(2, logger)

	// Test successful push
	err := q.Push(NewToggle("p1", true))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	_ = q.Push(NewToggle("p2", true))
	err = q.Push(NewToggle("p3", true))
	assert.Equal(t, ErrQueueFull, err)

	// Test closed queue
	q.Close()
	err = q.Push(NewToggle("p4", true))
	assert.Equal(t, ErrQueueClosed, err)
}

func TestToggleQueue_Subscribe(t *testing.T) {
	logger := logrus.New()
	q := NewToggleQueue(10, logger)

	var processed []*Toggle
	var mu sync.Mutex

	q.Subscribe(func(toggle *Toggle) error {
		mu.Lock()
		processed = append(processed, toggle)
		mu.Unlock()
		return nil
	})

	q.Start()

	err := q.Push(NewToggle("p1", true))
	assert.NoError(t, err)
	err = q.Push(NewToggle("p2", false))
	assert.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 2, len(processed))
	assert.Equal(t, "p1", processed[0].PropertyID)
	assert.True(t, processed[0].Favorite)
	assert.Equal(t, "p2", processed[1].PropertyID)
	assert.False(t, processed[1].Favorite)
	mu.Unlock()
}

func TestToggleQueue_Close(t *testing.T) {
	logger := logrus.New()
	q := NewToggleQueue(10, logger)

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestToggleQueue_CloseWhileProcessing(t *testing.T) {
	logger := logrus.New()

	// Close races the processing goroutine; handlers must only ever see real
	// toggles, never a zero receive from the closed channel.
	for i := 0; i < 200; i++ {
		q := NewToggleQueue(4, logger)

		var mu sync.Mutex
		var seen []string
		q.Subscribe(func(toggle *Toggle) error {
			mu.Lock()
			seen = append(seen, toggle.PropertyID)
			mu.Unlock()
			return nil
		})

		q.Start()
		_ = q.Push(NewToggle("p1", true))
		q.Close()

		time.Sleep(time.Millisecond)

		mu.Lock()
		for _, id := range seen {
			assert.Equal(t, "p1", id)
		}
		mu.Unlock()
	}
}

func TestToggleQueue_MultipleHandlers(t *testing.T) {
	logger := logrus.New()
	q := NewToggleQueue(10, logger)

	var wg sync.WaitGroup
	handled := 0
	var mu sync.Mutex

	for i := 0; i < 3; i++ {
		wg.Add(1)
		q.Subscribe(func(toggle *Toggle) error {
			mu.Lock()
			handled++
			mu.Unlock()
			wg.Done()
			return nil
		})
	}

	q.Start()

	err := q.Push(NewToggle("p1", true))
	assert.NoError(t, err)

	wg.Wait()

	mu.Lock()
	assert.Equal(t, 3, handled)
	mu.Unlock()
}
