// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handler files use these helpers instead of writing raw http.ResponseWriter
// calls so that JSON formatting, error envelopes, and logging stay consistent
// across every endpoint.
package httputil
