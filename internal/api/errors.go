package api

import "fmt"

// RemoteError is a failure reported by the API server. Its type and message
// are the authoritative diagnostic and are shown to the user as-is.
type RemoteError struct {
	Route      string
	StatusCode int
	Type       string // e.g. "InvalidInput", "PermissionDenied"
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: %s (code %d)", e.Route, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %s (code %d)", e.Route, e.Type, e.Message, e.StatusCode)
}
