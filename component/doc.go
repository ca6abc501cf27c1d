// Package component defines the lifecycle contract shared by the long-lived
// parts of the service: observability providers, the storage facade and the
// placeholder HTTP server.
//
// Components are registered with a Registry, which starts them in
// registration order, stops them in reverse order and aggregates health.
package component
