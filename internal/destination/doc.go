// Package destination turns a --destination string such as
// "project-XXXX:/folder/name" into a project, folder, and object name.
// Bare container identifiers are recognized directly; everything else is
// handed to a PathResolver.
package destination
