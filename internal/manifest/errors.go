package manifest

import (
	"fmt"
	"strings"
)

// ExternalToolError reports a package manager invocation that did not exit cleanly
type ExternalToolError struct {
	Tool     string
	Args     []string
	Dir      string
	ExitCode int // -1 when the process never produced an exit status
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	cmdline := strings.Join(append([]string{e.Tool}, e.Args...), " ")
	msg := fmt.Sprintf("%s failed with exit code %d", cmdline, e.ExitCode)
	if e.Dir != "" {
		msg += fmt.Sprintf(" (in %s)", e.Dir)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// ParseError reports a manifest or tool output without the expected structure
type ParseError struct {
	Source string // File path or command that produced the content
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
