// Package buildjobs tracks the user's image build jobs.
//
// A [Poller] fetches the image catalog once, then polls the build records on
// a self-rescheduling timer: the next poll is armed only after the previous
// one has been handled, so polls never overlap. Records are decorated with
// the catalog's display names and replaced wholesale on every poll.
//
// A 401 or 403 stops the loop and triggers the login boundary. Any other
// poll failure is transient: it is logged and counted, and the loop carries
// on at the next tick without showing anything to the user.
package buildjobs
