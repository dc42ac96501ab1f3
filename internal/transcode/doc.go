// Package transcode decides whether a source video is browser-playable
// as-is, remux-only, or needs a full re-encode, and drives ffmpeg to
// produce a cached MP4. Jobs are long-running, cancellable by timeout, and
// bounded by a host-wide concurrency gate.
package transcode
