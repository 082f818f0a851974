// Package middleware provides HTTP middleware for the resize API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip)
//   - Prometheus request metrics labeled by route template
package middleware
