package config

import "fmt"

// ParseError describes a malformed configuration file.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string

	// Message is a human-readable description.
	Message string

	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidError describes a configuration that parsed but failed
// validation.
type InvalidError struct {
	// Field names the offending entry.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}
