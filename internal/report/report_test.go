package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"txrmwatch/internal/extract"
	"txrmwatch/internal/report"
)

func TestSidecarPath(t *testing.T) {
	got := report.SidecarPath("/data/scan007.txrm", ".txt")
	if got != "/data/scan007.txrm.txt" {
		t.Fatalf("SidecarPath = %q", got)
	}
}

func TestWriteSuccessRendersFixedFieldOrder(t *testing.T) {
	dir := t.TempDir()
	scanPath := filepath.Join(dir, "scan007.txrm")
	sidecar := report.SidecarPath(scanPath, ".txt")
	now := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)

	fields := extract.Fields{
		"image_width":  1024,
		"image_height": 1024,
		"pixel_size":   0.65,
		"voltage":      "80",
	}
	if err := report.WriteSuccess(sidecar, scanPath, fields, now); err != nil {
		t.Fatalf("WriteSuccess failed: %v", err)
	}

	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	lines := strings.Split(string(data), "\n")

	if lines[0] != "Metadata extracted from: "+scanPath {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Extraction date: 2026-08-30T09:30:00Z" {
		t.Fatalf("unexpected date line: %q", lines[1])
	}
	if lines[2] != "" {
		t.Fatalf("expected blank separator line, got %q", lines[2])
	}

	body := lines[3:]
	if len(body) < len(report.DefaultFields) {
		t.Fatalf("expected %d field lines, got %d", len(report.DefaultFields), len(body))
	}
	for i, field := range report.DefaultFields {
		if !strings.HasPrefix(body[i], field+": ") {
			t.Fatalf("line %d = %q, want field %q", i, body[i], field)
		}
	}

	content := string(data)
	if !strings.Contains(content, "image_width: 1024\n") {
		t.Fatal("expected extracted value for image_width")
	}
	if !strings.Contains(content, "data_type: Not found in metadata\n") {
		t.Fatal("expected placeholder for missing field")
	}
}

func TestWriteErrorHeaderIsFirstLine(t *testing.T) {
	dir := t.TempDir()
	scanPath := filepath.Join(dir, "broken.txrm")
	sidecar := report.SidecarPath(scanPath, ".txt")
	now := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)

	cause := errors.New("tool exited with status 2")
	if err := report.WriteError(sidecar, scanPath, cause, now); err != nil {
		t.Fatalf("WriteError failed: %v", err)
	}

	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	lines := strings.Split(string(data), "\n")

	if lines[0] != report.ErrorHeader {
		t.Fatalf("first line = %q, want %q", lines[0], report.ErrorHeader)
	}
	if lines[1] != "Error: tool exited with status 2" {
		t.Fatalf("unexpected error line: %q", lines[1])
	}
	if lines[2] != "File: "+scanPath {
		t.Fatalf("unexpected file line: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "Date: 2026-08-30T") {
		t.Fatalf("unexpected date line: %q", lines[3])
	}
}

func TestWriteSuccessReportsSidecarWriteFailure(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "no-such-dir", "scan.txrm.txt")

	err := report.WriteSuccess(missing, "/data/scan.txrm", extract.Fields{"voltage": 80}, time.Now())
	if err == nil {
		t.Fatal("expected write failure")
	}
	if !errors.Is(err, extract.ErrSidecarWrite) {
		t.Fatalf("expected ErrSidecarWrite, got %v", err)
	}
}
