// Package model holds the Menu entity and the request/response shapes
// exchanged over the HTTP API.
package model
