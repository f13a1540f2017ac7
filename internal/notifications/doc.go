// Package notifications delivers daemon events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover the recording milestones so daemon
// code can emit consistent, user-friendly messages without duplicating HTTP
// glue.
//
// Extend this package if you need alternative transports; all daemon code
// depends only on the simple Service interface.
package notifications
