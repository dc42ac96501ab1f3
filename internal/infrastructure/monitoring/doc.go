// Package monitoring provides Prometheus metrics for the backend.
//
// A single Metrics value is created at startup and handed to the components
// that record into it: the HTTP middleware, both artifact caches, the
// thumbnail and transcode services, and the trash manifest. Metrics are
// exposed on /metrics via promhttp.
package monitoring
