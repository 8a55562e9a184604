// Package workflow validates dxworkflow.json manifests and creates workflows
// on the platform.
//
// Validation decides the destination project (command-line destination, then
// the manifest's own project, then the ambient workspace), requires every
// stage to name an executable, drops unsupported keys with a warning, and
// inlines readme files into the documentation fields. Nothing is sent to the
// platform until the whole manifest validates.
package workflow
