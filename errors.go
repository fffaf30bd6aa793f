package levelset

import "fmt"

// IOError is returned when a source or destination cannot be opened,
// read or written.
type IOError struct {
	Op   string // "open", "read", "write" or "create".
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return "levelset: " + e.Op + ": " + e.Err.Error()
	}
	return "levelset: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// TopologyError is returned when mesh connectivity is unusable,
// such as faces that are not triangles or that reference missing vertices.
type TopologyError struct {
	Face  int // Index of the offending face.
	Count int // Number of vertices of the face, zero if not relevant.
	Msg   string
}

func (e *TopologyError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("levelset: face %d has %d vertices, want 3", e.Face, e.Count)
	}
	return fmt.Sprintf("levelset: face %d: %s", e.Face, e.Msg)
}

// ConfigurationError is returned for invalid construction or
// extraction parameters.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "levelset: " + e.Msg }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}
