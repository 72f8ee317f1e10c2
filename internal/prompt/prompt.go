// Package prompt implements the timed single-responder text collection
// used by the create and join flows: one message from one user in one
// channel, or nothing when the window elapses.
package prompt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const DefaultWindow = 60 * time.Second

var (
	// ErrNoResponse means the window elapsed with no qualifying message.
	ErrNoResponse = errors.New("no response within collection window")
	// ErrCollectorBusy means a wait is already active for the pair.
	ErrCollectorBusy = errors.New("collection already active for this responder")
)

type waitKey struct {
	channelID string
	userID    string
}

// Collector routes inbound messages to at most one active wait per
// (channel, responder) pair.
type Collector struct {
	mu    sync.Mutex
	waits map[waitKey]chan string
}

func NewCollector() *Collector {
	return &Collector{waits: make(map[waitKey]chan string)}
}

// Await blocks until the responder sends a non-blank message in the
// channel, the window elapses, or ctx is cancelled. A cancelled context
// (conversation gone mid-wait) resolves as ErrNoResponse.
func (c *Collector) Await(ctx context.Context, channelID, userID string, window time.Duration) (string, error) {
	key := waitKey{channelID: channelID, userID: userID}
	ch := make(chan string, 1)

	c.mu.Lock()
	if _, active := c.waits[key]; active {
		c.mu.Unlock()
		return "", ErrCollectorBusy
	}
	c.waits[key] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.waits[key] == ch {
			delete(c.waits, key)
		}
		c.mu.Unlock()
	}()

	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case content := <-ch:
		return content, nil
	case <-timer.C:
		return "", ErrNoResponse
	case <-ctx.Done():
		return "", ErrNoResponse
	}
}

// Active reports whether a wait is registered for the pair.
func (c *Collector) Active(channelID, userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.waits[waitKey{channelID: channelID, userID: userID}]
	return ok
}

// Deliver offers a message to a pending wait and reports whether it was
// consumed. Messages from non-waited authors and blank messages are
// ignored, not consumed.
func (c *Collector) Deliver(channelID, authorID, content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}

	key := waitKey{channelID: channelID, userID: authorID}

	c.mu.Lock()
	ch, ok := c.waits[key]
	if ok {
		delete(c.waits, key)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	ch <- content
	return true
}
