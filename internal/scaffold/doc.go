// Package scaffold generates new build source directories from embedded
// templates. It powers the "dxbuild create" command, producing a manifest,
// a readme, and for applets an entry-point script, then checks the
// generated manifest with the same parser the build uses.
package scaffold
