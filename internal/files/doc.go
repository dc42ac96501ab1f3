// Package files implements directory listing, metadata, text access,
// and the copy/move/rename/search operations over a sandboxed root.
//
// All paths crossing the package boundary are virtual: they are
// resolved through the sandbox on the way in and relativized on the
// way out, so callers never see host filesystem paths.
package files
