// Package workflow runs the provisioning actions on resource instances:
// generate, update (configure), remove and download.
//
// Each instance has its own slot running Idle → Validating → Submitting →
// Idle. A second action on a busy slot is rejected with [ErrInFlight]; actions
// on different instances run independently. Update is gated by client-side
// validation that never reaches the network.
//
// Outcomes are reported through the message channel: generate uses the
// general slot, every per-instance action the instance slot. An expired
// session triggers the login boundary instead and sets no message.
package workflow
