package spidev

import "fmt"

// ConfigError is a custom error type for configuration errors
type ConfigError struct {
	msg string
}

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{msg}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// Error describes a failed device call. Op is phrased after the call that
// failed, e.g. "can't open device".
type Error struct {
	Op   string
	Path string
	Err  error
}

func newError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
