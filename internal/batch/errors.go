package batch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrIO            = errors.New("io error")
	ErrDataFormat    = errors.New("data format error")
	ErrValidation    = errors.New("validation error")
	ErrComputation   = errors.New("computation error")
)

// Exit codes returned by the CLI for each fatal error kind.
const (
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitIO            = 3
	ExitDataFormat    = 4
	ExitValidation    = 5
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a fatal error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrDataFormat):
		return ExitDataFormat
	case errors.Is(err, ErrValidation):
		return ExitValidation
	case errors.Is(err, ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}

// FormatError identifies the file position of a value that could not be parsed.
type FormatError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	if e.Value != "" || e.Column != "" {
		fmt.Fprintf(&b, ": value %q", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the data format marker and the underlying cause.
func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataFormat}
	}
	return []error{ErrDataFormat, e.Err}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "batch failure"
	}
	return strings.Join(parts, ": ")
}
