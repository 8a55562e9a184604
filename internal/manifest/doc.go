// Package manifest handles parsing and validation of build manifests
// (dxworkflow.json and dxapp.json). It decodes JSON while rejecting duplicate
// keys, checks documents against embedded JSON schemas, exposes typed records
// that keep unsupported keys in a side channel, and inlines readme files into
// the documentation fields.
package manifest
