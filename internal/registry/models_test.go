package registry_test

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"txrmwatch/internal/registry"
)

func TestCountdownMessage(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	window := 10 * time.Minute

	cases := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"fresh", 0, "Waiting for changes (600s)"},
		{"halfway", 5 * time.Minute, "Waiting for changes (300s)"},
		{"fraction floors", 30*time.Second + 400*time.Millisecond, "Waiting for changes (569s)"},
		{"boundary", 10 * time.Minute, "Waiting for changes (0s)"},
		{"overdue clamps", 15 * time.Minute, "Waiting for changes (0s)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := registry.CountdownMessage(base, base.Add(tc.elapsed), window)
			if got != tc.want {
				t.Fatalf("CountdownMessage(%v) = %q, want %q", tc.elapsed, got, tc.want)
			}
		})
	}
}

func TestCountdownMessageProperties(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		windowSec := rapid.Int64Range(1, 86400).Draw(t, "windowSec")
		elapsedMs := rapid.Int64Range(0, 2*windowSec*1000).Draw(t, "elapsedMs")

		window := time.Duration(windowSec) * time.Second
		now := base.Add(time.Duration(elapsedMs) * time.Millisecond)

		remaining := window - now.Sub(base)
		if remaining < 0 {
			remaining = 0
		}
		want := fmt.Sprintf("Waiting for changes (%ds)", int(remaining.Seconds()))

		got := registry.CountdownMessage(base, now, window)
		if got != want {
			t.Fatalf("CountdownMessage = %q, want %q", got, want)
		}
	})
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  registry.Status
		ok    bool
	}{
		{"pending", registry.StatusPending, true},
		{" Processing ", registry.StatusProcessing, true},
		{"COMPLETED", registry.StatusCompleted, true},
		{"errored", registry.StatusErrored, true},
		{"", "", false},
		{"unknown", "", false},
	}
	for _, tc := range cases {
		got, ok := registry.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if registry.StatusPending.Terminal() || registry.StatusProcessing.Terminal() {
		t.Fatal("pending and processing must not be terminal")
	}
	if !registry.StatusCompleted.Terminal() || !registry.StatusErrored.Terminal() {
		t.Fatal("completed and errored must be terminal")
	}
}
