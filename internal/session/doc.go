// Package session holds the explicit session context shared by every
// coordinator call and the token rotation guard that keeps it current.
//
// The server reissues an anti-forgery token on every response. [Transport]
// copies that value into the [Session] before the response is handed back,
// and stamps the current value on every outgoing request. The invariant is:
// the token sent with request N+1 is the rotation header of response N, or
// the previous value when response N carried none.
package session
