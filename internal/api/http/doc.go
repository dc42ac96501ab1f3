// Package http contains the gin handlers for the REST API.
//
// Handlers validate and bind requests, call domain services with virtual
// paths, and translate domain errors to HTTP statuses via writeError.
// Services never see HTTP types; handlers never touch host paths except
// to hand them to os and http.ServeFile after sandbox resolution.
package http
