package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"txrmwatch/internal/events"
	"txrmwatch/internal/logging"
	"txrmwatch/internal/registry"
	"txrmwatch/internal/scanner"
	"txrmwatch/internal/testsupport"
)

func newScanner(t *testing.T) (*scanner.Scanner, *registry.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	s := scanner.New(cfg, store, events.NewHub(0), logging.NewNop())
	return s, store, testsupport.WatchDir(cfg)
}

func TestScanTracksWatchedFiles(t *testing.T) {
	s, store, dir := newScanner(t)
	ctx := context.Background()

	testsupport.WriteScanFile(t, filepath.Join(dir, "a.txrm"), 2048)
	testsupport.WriteScanFile(t, filepath.Join(dir, "nested", "b.TXRM"), 4096)
	testsupport.WriteScanFile(t, filepath.Join(dir, "ignored.tif"), 128)

	result, err := s.Scan(ctx, []string{dir})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.Found != 2 || result.Added != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	entry, err := store.Get(ctx, filepath.Join(dir, "a.txrm"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a.txrm to be tracked")
	}
	if entry.Size != 2048 {
		t.Fatalf("expected size 2048, got %d", entry.Size)
	}
	if entry.Status != registry.StatusPending {
		t.Fatalf("expected pending, got %s", entry.Status)
	}

	if entry, err = store.Get(ctx, filepath.Join(dir, "nested", "b.TXRM")); err != nil || entry == nil {
		t.Fatalf("expected nested uppercase extension to be tracked (entry=%v err=%v)", entry, err)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	s, store, dir := newScanner(t)
	ctx := context.Background()

	path := filepath.Join(dir, "a.txrm")
	testsupport.WriteScanFile(t, path, 2048)

	if _, err := s.Scan(ctx, []string{dir}); err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}

	// The tick owns size tracking; a rescan must not reset observed state.
	testsupport.GrowFile(t, path, 1024)
	result, err := s.Scan(ctx, []string{dir})
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if result.Added != 0 || result.Removed != 0 {
		t.Fatalf("expected no-op rescan, got %+v", result)
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Size != 2048 {
		t.Fatalf("rescan must not overwrite size: got %d", entry.Size)
	}
}

func TestScanSkipsFilesWithSidecar(t *testing.T) {
	s, store, dir := newScanner(t)
	ctx := context.Background()

	path := filepath.Join(dir, "done.txrm")
	testsupport.WriteScanFile(t, path, 2048)
	testsupport.WriteScanFile(t, path+".txt", 16)

	result, err := s.Scan(ctx, []string{dir})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.Found != 0 {
		t.Fatalf("expected no eligible files, got %+v", result)
	}

	entry, err := store.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("file with sidecar must not be tracked: %+v", entry)
	}
}

func TestScanRetiresVanishedFiles(t *testing.T) {
	s, store, dir := newScanner(t)
	ctx := context.Background()

	keep := filepath.Join(dir, "keep.txrm")
	gone := filepath.Join(dir, "gone.txrm")
	testsupport.WriteScanFile(t, keep, 1024)
	testsupport.WriteScanFile(t, gone, 1024)

	if _, err := s.Scan(ctx, []string{dir}); err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	result, err := s.Scan(ctx, []string{dir})
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("expected 1 removal, got %+v", result)
	}

	entry, err := store.Get(ctx, gone)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatal("vanished file should have been retired")
	}
	if entry, err = store.Get(ctx, keep); err != nil || entry == nil {
		t.Fatalf("surviving file must stay tracked (entry=%v err=%v)", entry, err)
	}
}

func TestScanSkipsMissingRoot(t *testing.T) {
	s, store, dir := newScanner(t)
	ctx := context.Background()

	testsupport.WriteScanFile(t, filepath.Join(dir, "a.txrm"), 1024)
	missing := filepath.Join(dir, "does-not-exist")

	result, err := s.Scan(ctx, []string{missing, dir})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.Found != 1 || result.Added != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if entry, err := store.Get(ctx, filepath.Join(dir, "a.txrm")); err != nil || entry == nil {
		t.Fatalf("reachable root must still be scanned (entry=%v err=%v)", entry, err)
	}
}

func TestScanWithNoRoots(t *testing.T) {
	s, _, _ := newScanner(t)

	result, err := s.Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.Found != 0 || result.Added != 0 || result.Removed != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
