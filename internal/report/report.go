// Package report writes the sidecar artifacts recording extraction results.
//
// A success report lists a fixed field order so reports from different scans
// line up when diffed; fields the extractor did not produce render as
// "Not found in metadata". An error report carries a literal header other
// tooling greps for, so its first line must never change.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"txrmwatch/internal/extract"
)

// ErrorHeader is the first line of every error sidecar.
const ErrorHeader = "ERROR PROCESSING METADATA"

// DefaultFields is the fixed order in which metadata fields appear in a
// success report.
var DefaultFields = []string{
	"image_width", "image_height", "data_type", "number_of_images",
	"pixel_size", "reference_exposure_time", "reference_current",
	"reference_voltage", "reference_data_type", "image_data_type",
	"align-mode", "center_shift", "rotation_angle",
	"source_isocenter_distance", "detector_isocenter_distance", "cone_angle",
	"fan_angle", "camera_offset", "source_drift", "current", "voltage",
	"power", "exposure_time", "binning", "filter",
	"scaling_min", "scaling_max", "objective_id", "objective_mag",
}

// SidecarPath returns the report location for a scan file.
func SidecarPath(scanPath, sidecarExt string) string {
	return scanPath + sidecarExt
}

// WriteSuccess renders the extracted fields in the fixed default order and
// writes the success sidecar next to the scan file.
func WriteSuccess(sidecarPath, scanPath string, fields extract.Fields, now time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Metadata extracted from: %s\n", scanPath)
	fmt.Fprintf(&b, "Extraction date: %s\n", now.Format(time.RFC3339))
	b.WriteString("\n")

	for _, field := range DefaultFields {
		value, ok := fields[field]
		if !ok || value == nil {
			fmt.Fprintf(&b, "%s: Not found in metadata\n", field)
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", field, value)
	}

	if err := os.WriteFile(sidecarPath, []byte(b.String()), 0o644); err != nil {
		return extract.Wrap(extract.ErrSidecarWrite, "write report", sidecarPath, err)
	}
	return nil
}

// WriteError records a terminal extraction failure in the sidecar so the
// file is not retried and the failure survives a daemon restart.
func WriteError(sidecarPath, scanPath string, cause error, now time.Time) error {
	var b strings.Builder
	b.WriteString(ErrorHeader + "\n")
	fmt.Fprintf(&b, "Error: %v\n", cause)
	fmt.Fprintf(&b, "File: %s\n", scanPath)
	fmt.Fprintf(&b, "Date: %s\n", now.Format(time.RFC3339))

	if err := os.WriteFile(sidecarPath, []byte(b.String()), 0o644); err != nil {
		return extract.Wrap(extract.ErrSidecarWrite, "write error report", sidecarPath, err)
	}
	return nil
}
