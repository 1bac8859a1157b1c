package descriptor

import (
	"errors"
	"fmt"
)

// ErrUnavailable signals that an optional input simply does not exist in this
// build environment (no repository, no lock file). It is not a failure:
// probes return it to degrade their descriptor field to absent, and the
// aggregator never propagates it.
var ErrUnavailable = errors.New("unavailable")

// ConfigError reports a missing or invalid required baseline value. It is
// the single hard failure of an otherwise best-effort system: nothing
// downstream can run without the baseline fields.
type ConfigError struct {
	Key string // environment variable or config field at fault
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration: %s is required", e.Key)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseError reports structural corruption of a present input file. Absence
// of the file is ErrUnavailable; a file that exists but does not parse aborts
// the run, since emitting a descriptor built from partially-corrupt data
// would silently mislead consumers.
type ParseError struct {
	Path string
	Line int // 1-based, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EmitError reports that the generated artifact could not be written.
type EmitError struct {
	Path string
	Err  error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s: %v", e.Path, e.Err)
}

func (e *EmitError) Unwrap() error {
	return e.Err
}
