package events_test

import (
	"context"
	"testing"
	"time"

	"txrmwatch/internal/events"
)

func TestFetchReturnsEventsAfterSequence(t *testing.T) {
	hub := events.NewHub(16)
	hub.Progress("first")
	hub.StateChanged("/data/a.txrm")
	hub.Progress("third")

	evts, next, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	if evts[0].Kind != events.KindProgress || evts[0].Message != "first" {
		t.Fatalf("unexpected first event: %+v", evts[0])
	}
	if evts[1].Kind != events.KindStateChanged || evts[1].Path != "/data/a.txrm" {
		t.Fatalf("unexpected second event: %+v", evts[1])
	}
	if next != evts[2].Sequence {
		t.Fatalf("cursor %d should match last sequence %d", next, evts[2].Sequence)
	}

	evts, _, err = hub.Fetch(context.Background(), next, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(evts) != 0 {
		t.Fatalf("expected no new events, got %d", len(evts))
	}
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	hub := events.NewHub(4)
	for i := 0; i < 10; i++ {
		hub.Progress("msg")
	}

	evts, _, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(evts) != 4 {
		t.Fatalf("expected buffer capped at 4, got %d", len(evts))
	}
	if evts[0].Sequence != 7 || evts[3].Sequence != 10 {
		t.Fatalf("expected sequences 7..10, got %d..%d", evts[0].Sequence, evts[3].Sequence)
	}
}

func TestFetchWaitWakesOnPublish(t *testing.T) {
	hub := events.NewHub(16)

	type result struct {
		evts []events.Event
		err  error
	}
	done := make(chan result, 1)
	go func() {
		evts, _, err := hub.Fetch(context.Background(), 0, 0, true)
		done <- result{evts, err}
	}()

	time.Sleep(20 * time.Millisecond)
	hub.StateChanged("/data/b.txrm")

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Fetch failed: %v", res.err)
		}
		if len(res.evts) != 1 || res.evts[0].Path != "/data/b.txrm" {
			t.Fatalf("unexpected events: %+v", res.evts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake on publish")
	}
}

func TestFetchWaitHonorsContextCancel(t *testing.T) {
	hub := events.NewHub(16)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, _, err := hub.Fetch(ctx, 0, 0, true)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context error from canceled Fetch")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after cancellation")
	}
}

func TestTailReturnsMostRecent(t *testing.T) {
	hub := events.NewHub(16)
	hub.Progress("one")
	hub.Progress("two")
	hub.Progress("three")

	evts, next := hub.Tail(2)
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}
	if evts[0].Message != "two" || evts[1].Message != "three" {
		t.Fatalf("unexpected tail: %+v", evts)
	}
	if next != 3 {
		t.Fatalf("cursor = %d, want 3", next)
	}
}
