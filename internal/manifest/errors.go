package manifest

import (
	"fmt"
	"strings"
)

// Error reports a malformed or incomplete manifest. It is always fatal to the
// current build and is never retried.
type Error struct {
	File   string            // manifest file name, e.g. "dxworkflow.json"; may be empty
	Msg    string            // human-readable description
	Issues []ValidationIssue // schema issues, if the failure came from schema validation
	Err    error             // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	for _, issue := range e.Issues {
		b.WriteString("\n  ")
		b.WriteString(issue.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf returns an *Error for file with a formatted message.
func Errorf(file, format string, args ...any) *Error {
	return &Error{File: file, Msg: fmt.Sprintf(format, args...)}
}
