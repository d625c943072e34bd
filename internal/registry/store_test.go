package registry_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"txrmwatch/internal/registry"
	"txrmwatch/internal/testsupport"
)

func TestTrackIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(testsupport.WatchDir(cfg), "sample.txrm")
	now := time.Now().UTC()

	created, err := store.Track(ctx, path, 1024, now, "Waiting for changes (600s)")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if !created {
		t.Fatal("expected first Track to create the entry")
	}

	created, err = store.Track(ctx, path, 2048, now.Add(time.Minute), "different")
	if err != nil {
		t.Fatalf("second Track failed: %v", err)
	}
	if created {
		t.Fatal("expected second Track to be a no-op")
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry to exist")
	}
	if entry.Size != 1024 {
		t.Fatalf("rescan must not overwrite size: got %d", entry.Size)
	}
	if entry.Status != registry.StatusPending {
		t.Fatalf("expected pending status, got %s", entry.Status)
	}
}

func TestRecordSizeChangeResetsStabilityClock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(testsupport.WatchDir(cfg), "growing.txrm")
	start := time.Now().UTC().Add(-time.Hour)

	if _, err := store.Track(ctx, path, 100, start, ""); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	changed := start.Add(30 * time.Minute)
	if err := store.RecordSizeChange(ctx, path, 200, changed, "Waiting for changes (600s)"); err != nil {
		t.Fatalf("RecordSizeChange failed: %v", err)
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Size != 200 {
		t.Fatalf("expected size 200, got %d", entry.Size)
	}
	if !entry.LastChangeAt.Equal(changed) {
		t.Fatalf("expected last change %v, got %v", changed, entry.LastChangeAt)
	}
	if entry.Message != "Waiting for changes (600s)" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
}

func TestRecordSizeChangeIgnoresNonPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(testsupport.WatchDir(cfg), "busy.txrm")
	testsupport.Track(t, store, path, 100)

	won, err := store.MarkProcessing(ctx, path, "job-1", "Processing")
	if err != nil || !won {
		t.Fatalf("MarkProcessing failed: won=%v err=%v", won, err)
	}

	if err := store.RecordSizeChange(ctx, path, 999, time.Now().UTC(), "ignored"); err != nil {
		t.Fatalf("RecordSizeChange failed: %v", err)
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Size != 100 {
		t.Fatalf("processing entry must not change size: got %d", entry.Size)
	}
	if entry.Status != registry.StatusProcessing {
		t.Fatalf("expected processing, got %s", entry.Status)
	}
}

func TestMarkProcessingSingleWinner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(testsupport.WatchDir(cfg), "contended.txrm")
	testsupport.Track(t, store, path, 4096)

	const contenders = 8
	var wg sync.WaitGroup
	wins := make(chan string, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			won, err := store.MarkProcessing(ctx, path, fmt.Sprintf("job-%d", id), "Processing")
			if err != nil {
				t.Errorf("MarkProcessing failed: %v", err)
				return
			}
			if won {
				wins <- fmt.Sprintf("job-%d", id)
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for id := range wins {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one promotion winner, got %d (%v)", len(winners), winners)
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Status != registry.StatusProcessing {
		t.Fatalf("expected processing, got %s", entry.Status)
	}
	if entry.JobID != winners[0] {
		t.Fatalf("expected job id %s, got %s", winners[0], entry.JobID)
	}
}

func TestTerminalTransitionsRequireProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(testsupport.WatchDir(cfg), "pending.txrm")
	testsupport.Track(t, store, path, 100)

	if err := store.MarkCompleted(ctx, path); err == nil {
		t.Fatal("expected MarkCompleted to reject a pending entry")
	}
	if err := store.MarkErrored(ctx, path, "boom"); err == nil {
		t.Fatal("expected MarkErrored to reject a pending entry")
	}

	if won, err := store.MarkProcessing(ctx, path, "job-1", "Processing"); err != nil || !won {
		t.Fatalf("MarkProcessing failed: won=%v err=%v", won, err)
	}
	if err := store.MarkCompleted(ctx, path); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Status != registry.StatusCompleted {
		t.Fatalf("expected completed, got %s", entry.Status)
	}
	if !entry.Terminal() {
		t.Fatal("completed entry must be terminal")
	}

	// Terminal states are final.
	if won, err := store.MarkProcessing(ctx, path, "job-2", "Processing"); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	} else if won {
		t.Fatal("completed entry must not be promotable")
	}
}

func TestMarkErroredStoresMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(testsupport.WatchDir(cfg), "broken.txrm")
	testsupport.Track(t, store, path, 100)

	if won, err := store.MarkProcessing(ctx, path, "job-1", "Processing"); err != nil || !won {
		t.Fatalf("MarkProcessing failed: won=%v err=%v", won, err)
	}
	if err := store.MarkErrored(ctx, path, "tool exited with status 2"); err != nil {
		t.Fatalf("MarkErrored failed: %v", err)
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Status != registry.StatusErrored {
		t.Fatalf("expected errored, got %s", entry.Status)
	}
	if entry.ErrorMessage != "tool exited with status 2" {
		t.Fatalf("unexpected error message %q", entry.ErrorMessage)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stuck := filepath.Join(testsupport.WatchDir(cfg), "stuck.txrm")
	done := filepath.Join(testsupport.WatchDir(cfg), "done.txrm")
	testsupport.Track(t, store, stuck, 100)
	testsupport.Track(t, store, done, 100)

	if won, err := store.MarkProcessing(ctx, stuck, "job-1", "Processing"); err != nil || !won {
		t.Fatalf("MarkProcessing failed: won=%v err=%v", won, err)
	}
	if won, err := store.MarkProcessing(ctx, done, "job-2", "Processing"); err != nil || !won {
		t.Fatalf("MarkProcessing failed: won=%v err=%v", won, err)
	}
	if err := store.MarkCompleted(ctx, done); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset entry, got %d", reset)
	}

	entry, err := store.Get(ctx, stuck)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Status != registry.StatusPending {
		t.Fatalf("expected pending after reset, got %s", entry.Status)
	}
	if entry.JobID != "" {
		t.Fatalf("expected cleared job id, got %q", entry.JobID)
	}
	if entry.Message != "Reset after restart" {
		t.Fatalf("unexpected message %q", entry.Message)
	}

	completed, err := store.Get(ctx, done)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if completed.Status != registry.StatusCompleted {
		t.Fatalf("reset must not touch terminal entries, got %s", completed.Status)
	}
}

func TestRemoveAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := filepath.Join(testsupport.WatchDir(cfg), "first.txrm")
	second := filepath.Join(testsupport.WatchDir(cfg), "second.txrm")
	testsupport.Track(t, store, first, 100)
	testsupport.Track(t, store, second, 100)

	if won, err := store.MarkProcessing(ctx, second, "job-1", "Processing"); err != nil || !won {
		t.Fatalf("MarkProcessing failed: won=%v err=%v", won, err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	gone, err := store.Remove(ctx, first)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !gone {
		t.Fatal("expected Remove to delete the entry")
	}
	gone, err = store.Remove(ctx, first)
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if gone {
		t.Fatal("expected second Remove to be a no-op")
	}

	paths, err := store.Paths(ctx)
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != second {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestGetRejectsCorruptTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	path := filepath.Join(testsupport.WatchDir(cfg), "corrupt.txrm")
	testsupport.Track(t, store, path, 100)

	// Mangle the stability clock behind the store's back. A zero-value
	// LastChangeAt would make the entry look quiescent for decades, so reads
	// must fail loudly instead.
	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open registry db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE tracked_files SET last_change_at = 'not-a-time' WHERE path = ?`, path); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if _, err := store.Get(ctx, path); err == nil || !strings.Contains(err.Error(), "last_change_at") {
		t.Fatalf("expected a last_change_at parse error, got %v", err)
	}
}

func TestPendingExcludesOtherStates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	pending := filepath.Join(testsupport.WatchDir(cfg), "pending.txrm")
	processing := filepath.Join(testsupport.WatchDir(cfg), "processing.txrm")
	testsupport.Track(t, store, pending, 100)
	testsupport.Track(t, store, processing, 100)

	if won, err := store.MarkProcessing(ctx, processing, "job-1", "Processing"); err != nil || !won {
		t.Fatalf("MarkProcessing failed: won=%v err=%v", won, err)
	}

	entries, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != pending {
		t.Fatalf("unexpected pending entries: %+v", entries)
	}
}
