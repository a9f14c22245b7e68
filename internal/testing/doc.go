// Package testing provides test utilities and builders shared by package tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for asctl configurations
//   - InstanceBuilder: Fluent builder for resource instances
//   - fakeserver: An in-process coordination server (subpackage)
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithServer(srv.URL).
//	    WithCredentials("alice@example.org", "secret").
//	    Build()
//
//	in := testing.NewInstanceBuilder("ffaa:1:1").
//	    PublicIP("10.0.0.1", 9000).
//	    Via("AP1").
//	    Build()
package testing
