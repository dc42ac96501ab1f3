package fault

import "errors"

// Sentinel errors shared across the backend. Components wrap these with
// fmt.Errorf("...: %w", err) so callers can classify failures with errors.Is
// without depending on the package that produced them.
var (
	// ErrPathTraversal marks an attempted escape from a sandbox root.
	// Resolution fails closed; no partial path is ever returned alongside it.
	ErrPathTraversal = errors.New("path traversal")

	// ErrNotFound marks a source file or directory that does not exist,
	// including one that vanished between stat and use.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported marks a media type with no generator. It is a
	// legitimate negative result, not a failure.
	ErrUnsupported = errors.New("unsupported media type")

	// ErrToolUnavailable marks a missing external tool (ffmpeg/ffprobe).
	// The dependent feature degrades; the process keeps running.
	ErrToolUnavailable = errors.New("external tool unavailable")

	// ErrTimeout marks an external process that exceeded its budget.
	ErrTimeout = errors.New("operation timed out")

	// ErrExists marks a target name collision where the caller asked for
	// no automatic renaming.
	ErrExists = errors.New("already exists")

	// ErrUnavailable marks a derived artifact that could not be produced,
	// either by this call or by an earlier in-flight attempt the caller
	// waited on. Presented to users as "not available", never as a crash.
	ErrUnavailable = errors.New("artifact unavailable")

	// ErrManifest marks trash manifest state that no longer matches the
	// filesystem. Detected lazily, logged, never fatal.
	ErrManifest = errors.New("manifest inconsistency")

	// ErrInvalid marks a request the caller could have known was wrong:
	// reading a directory as text, a name with a path separator, bad input.
	ErrInvalid = errors.New("invalid request")

	// ErrTooLarge marks content over a configured size limit.
	ErrTooLarge = errors.New("too large")
)
