// Package api is the typed client for the coordinator's HTTP API.
//
// Each endpoint has one method and one result type. Wire formats (ad hoc
// booleans, numeric status codes, the configure "type" token) are converted
// to the model package's enums here and nowhere else.
//
// Every call classifies its failure into the error taxonomy in errors.go:
// 401 and 403 always become [AuthExpiredError], other non-2xx responses
// become [ServerRejectedError] with the body surfaced verbatim, and transport
// failures become [NetworkError]. The client never retries.
//
// All requests go through the session token rotation guard, so the client
// must be the only path to the server within a session.
package api
