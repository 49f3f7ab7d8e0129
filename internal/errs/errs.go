// Package errs define custom error types and utilities.
//
// It has two error categories the HTTP layer knows how to render:
//   - HTTPError: a domain error carrying its own code, message and status.
//   - ValidationError: one or more request fields failed their constraints.
//
// Both are translated into the response envelope by the global error handler.
package errs
