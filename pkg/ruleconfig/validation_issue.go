package ruleconfig

import (
	"errors"
	"fmt"
)

// ValidationIssue is a path-qualified failure. Path is built outer-to-inner
// from ".field" and "[index]" fragments, each recursion level prepending its
// own fragment onto the issue returned by the level below.
type ValidationIssue struct {
	Path    string
	Message string
}

func (e *ValidationIssue) Error() string {
	if e == nil {
		return ""
	}
	return e.Path + ": " + e.Message
}

func issuef(format string, args ...any) error {
	return &ValidationIssue{Message: fmt.Sprintf(format, args...)}
}

// withPath prepends fragment to err's path. Errors that are not issues
// become issues whose message is the error text.
func withPath(fragment string, err error) error {
	if err == nil {
		return nil
	}
	var vi *ValidationIssue
	if errors.As(err, &vi) {
		return &ValidationIssue{Path: fragment + vi.Path, Message: vi.Message}
	}
	return &ValidationIssue{Path: fragment, Message: err.Error()}
}

// ErrorKind separates malformed JSON from documents that parse but do not
// describe a valid rule tree.
type ErrorKind int

const (
	KindParse ErrorKind = iota + 1
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ConfigError is returned by ParseConfigString and Compile.
type ConfigError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConfigError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.Kind == KindParse {
		return "JSON parsing failed. " + e.Err.Error()
	}
	return "config" + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Path returns the document path of the offending value ("config.rules[0].level"),
// or "" for parse errors.
func (e *ConfigError) Path() string {
	if e == nil || e.Kind != KindConfig {
		return ""
	}
	var vi *ValidationIssue
	if errors.As(e.Err, &vi) {
		return "config" + vi.Path
	}
	return "config"
}

func IsParseError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) && ce.Kind == KindParse
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) && ce.Kind == KindConfig
}
