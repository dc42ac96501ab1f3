// Package server assembles the application: configuration, logging,
// metrics, the sandbox, caches, domain services, and the gin router with
// its middleware stack. It owns startup order and graceful shutdown.
package server
