package prompt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"teambot/internal/prompt"
)

func TestAwaitResolvesWithFirstQualifyingMessage(t *testing.T) {
	c := prompt.NewCollector()

	done := make(chan struct{})
	var got string
	var err error
	go func() {
		defer close(done)
		got, err = c.Await(context.Background(), "ch1", "u1", time.Second)
	}()

	deliverEventually(t, c, "ch1", "u1", "  Alpha  ")

	<-done
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got != "Alpha" {
		t.Fatalf("expected trimmed content, got %q", got)
	}
}

func TestAwaitIgnoresOtherResponders(t *testing.T) {
	c := prompt.NewCollector()

	done := make(chan struct{})
	var got string
	var err error
	go func() {
		defer close(done)
		got, err = c.Await(context.Background(), "ch1", "u1", time.Second)
	}()

	waitForRegistration(t, c, "ch1", "u1")

	if c.Deliver("ch1", "u2", "intruder") {
		t.Fatalf("message from another responder should not be consumed")
	}
	if c.Deliver("ch2", "u1", "wrong channel") {
		t.Fatalf("message in another channel should not be consumed")
	}
	if c.Deliver("ch1", "u1", "   ") {
		t.Fatalf("blank message should not be consumed")
	}
	if !c.Deliver("ch1", "u1", "Beta") {
		t.Fatalf("qualifying message should be consumed")
	}

	<-done
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got != "Beta" {
		t.Fatalf("expected Beta, got %q", got)
	}
}

func TestAwaitTimesOutAtWindowExpiry(t *testing.T) {
	c := prompt.NewCollector()

	window := 50 * time.Millisecond
	start := time.Now()
	_, err := c.Await(context.Background(), "ch1", "u1", window)
	elapsed := time.Since(start)

	if !errors.Is(err, prompt.ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
	if elapsed < window {
		t.Fatalf("resolved before window expiry: %v", elapsed)
	}
	if elapsed > time.Second {
		t.Fatalf("resolved far after window expiry: %v", elapsed)
	}
}

func TestAwaitTreatsCancellationAsTimeout(t *testing.T) {
	c := prompt.NewCollector()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Await(ctx, "ch1", "u1", time.Minute); !errors.Is(err, prompt.ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

func TestAwaitRejectsSecondWaitForSamePair(t *testing.T) {
	c := prompt.NewCollector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Await(ctx, "ch1", "u1", time.Minute)
	}()

	waitForRegistration(t, c, "ch1", "u1")

	if _, err := c.Await(context.Background(), "ch1", "u1", time.Minute); !errors.Is(err, prompt.ErrCollectorBusy) {
		t.Fatalf("expected ErrCollectorBusy, got %v", err)
	}

	cancel()
	<-done
}

func TestDeliverWithoutWaitIsNotConsumed(t *testing.T) {
	c := prompt.NewCollector()
	if c.Deliver("ch1", "u1", "nobody waiting") {
		t.Fatalf("message without an active wait should not be consumed")
	}
}

// deliverEventually retries until the wait registers; Await runs in a
// separate goroutine and registration is not externally observable.
func deliverEventually(t *testing.T, c *prompt.Collector, channelID, userID, content string) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Deliver(channelID, userID, content) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("wait never registered for %s/%s", channelID, userID)
}

func waitForRegistration(t *testing.T, c *prompt.Collector, channelID, userID string) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Active(channelID, userID) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("wait never registered for %s/%s", channelID, userID)
}
