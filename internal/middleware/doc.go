// Package middleware provides the HTTP middleware chain for the viewer
// daemon.
//
// It includes:
//   - Access logging in W3C Extended Log Format
//   - Prometheus request metrics with bounded path cardinality
//   - Response compression for the JSON catalog endpoints
package middleware
