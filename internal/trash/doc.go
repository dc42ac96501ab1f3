// Package trash implements reversible delete: items move into a hidden
// trash directory under the primary root and a JSON manifest records each
// item's original location for restore. The manifest, not the physical
// filename, is the durable source of truth.
package trash
