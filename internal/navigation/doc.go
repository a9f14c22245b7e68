// Package navigation is the boundary between the coordinator and whatever
// presents it. The coordinator never renders or fetches navigation targets
// itself: downloads are handed to a [Navigator] and session expiry to a
// [LoginBoundary].
//
// The CLI implementations save navigation targets to disk (optionally
// mirroring them to an S3 bucket) and print a login notice.
package navigation
