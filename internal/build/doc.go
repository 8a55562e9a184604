// Package build decides what a source directory builds into and runs the
// matching builder. It owns the command-line argument rules: every conflict
// between flags, and every destination problem, is reported as a
// ConfigurationError before any request leaves the process.
package build
