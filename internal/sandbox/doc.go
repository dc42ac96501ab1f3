// Package sandbox confines all filesystem access to a configured set of
// roots: one primary root plus optional named mounts.
//
// Every other component resolves user-supplied paths through Resolve before
// touching the filesystem, and maps absolute paths back to user-facing form
// with Relativize. Resolution canonicalizes symlinks and ".." components and
// rejects any result that leaves its root with fault.ErrPathTraversal.
package sandbox
