// Package handlers implements the business logic for asctl commands.
//
// Every command loads the configuration, logs in, runs one coordinator
// operation and logs out again. Collaborators are held in package
// variables so tests can replace them.
package handlers
