package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"txrmwatch/internal/config"
)

// Fields is the metadata mapping returned by an extraction.
type Fields map[string]any

// Extractor reads metadata fields from a scan file.
type Extractor interface {
	Extract(ctx context.Context, path string) (Fields, error)
}

// Func adapts a plain function to the Extractor interface (used in tests).
type Func func(ctx context.Context, path string) (Fields, error)

func (f Func) Extract(ctx context.Context, path string) (Fields, error) {
	return f(ctx, path)
}

var commandContext = exec.CommandContext

// CommandExtractor runs the configured external extraction tool. The scan
// file path is appended as the final argument; the tool must print a JSON
// object of field name to value on stdout.
type CommandExtractor struct {
	command string
	args    []string
}

// NewCommandExtractor builds an extractor from configuration.
func NewCommandExtractor(cfg *config.Config) *CommandExtractor {
	return &CommandExtractor{
		command: cfg.Extractor.Command,
		args:    append([]string(nil), cfg.Extractor.Args...),
	}
}

// Extract invokes the external tool and decodes its output. Any non-zero
// exit, undecodable output, or empty field map is an ErrExtraction.
func (e *CommandExtractor) Extract(ctx context.Context, path string) (Fields, error) {
	args := append(append([]string(nil), e.args...), path)
	cmd := commandContext(ctx, e.command, args...) //nolint:gosec

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, Wrap(ErrExtraction, e.command, detail, err)
	}

	var fields Fields
	if err := json.Unmarshal(stdout.Bytes(), &fields); err != nil {
		return nil, Wrap(ErrExtraction, e.command, "decode metadata output", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s reported no metadata fields", ErrExtraction, e.command)
	}
	return fields, nil
}
