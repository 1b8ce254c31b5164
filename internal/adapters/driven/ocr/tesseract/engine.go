// Package tesseract recognises text in images by running the tesseract CLI.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// DefaultBinary is the executable looked up on PATH.
const DefaultBinary = "tesseract"

// DefaultLanguage is the tesseract language pack used when none is set.
const DefaultLanguage = "eng"

// ErrTesseractNotFound is returned when the tesseract binary is not on PATH.
var ErrTesseractNotFound = fmt.Errorf("%w: tesseract not found in PATH", domain.ErrOCRUnavailable)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrTesseractNotFound
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Engine is an OCREngine backed by the tesseract CLI.
type Engine struct {
	runner   CommandRunner
	binary   string
	language string
}

// Option configures the engine.
type Option func(*Engine)

// WithLanguage sets the tesseract language (e.g. "eng+deu").
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		if lang != "" {
			e.language = lang
		}
	}
}

// WithBinary overrides the tesseract executable path.
func WithBinary(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.binary = path
		}
	}
}

// New creates an engine that shells out to tesseract.
func New(opts ...Option) *Engine {
	return NewWithRunner(execRunner{}, opts...)
}

// NewWithRunner creates an engine with a custom command runner.
func NewWithRunner(runner CommandRunner, opts ...Option) *Engine {
	e := &Engine{
		runner:   runner,
		binary:   DefaultBinary,
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the engine.
func (e *Engine) Name() string {
	return "tesseract"
}

// Recognize writes the image to a temporary file and returns tesseract's stdout.
func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	if len(png) == 0 {
		return "", domain.ErrInvalidInput
	}

	f, err := os.CreateTemp("", "docsight-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(png); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, e.binary, f.Name(), "stdout", "-l", e.language)
	if err != nil {
		if errors.Is(err, domain.ErrOCRUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("tesseract failed: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// CheckAvailable reports whether tesseract can be found on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		return ErrTesseractNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing tesseract.
func InstallInstructions() string {
	return `Image extraction requires tesseract.

  macOS:   brew install tesseract
  Debian:  apt install tesseract-ocr
  Fedora:  dnf install tesseract`
}
