// Package api is a small client for the platform's JSON-over-HTTP API. Every
// route is a POST of a JSON object; non-2xx responses become *RemoteError and
// are returned to the caller unchanged, without retries.
package api
