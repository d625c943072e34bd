package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying terminal per-file failures. Both leave the
// entry errored with an error sidecar written; neither ever propagates out
// of a job to abort the dispatcher.
var (
	ErrExtraction   = errors.New("extraction failed")
	ErrSidecarWrite = errors.New("sidecar write failed")
)

// Wrap builds an error message carrying operation context while tagging it
// with the provided sentinel for classification.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrExtraction
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "extraction failure"
	}
	return strings.Join(parts, ": ")
}
