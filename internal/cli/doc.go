// Package cli defines the Cobra command tree for the dxbuild CLI. Each file
// registers one top-level command with the root command. Commands parse
// flags, load configuration, and format output; the work itself lives in
// internal/build and the packages below it.
package cli
