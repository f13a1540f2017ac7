// Package daemon wires the motor registry, episode logger, catalog, and
// watchdogs into a single lifecycle with flock-based locking to prevent
// multiple instances, and dispatches the command requests received over
// the TCP control port. One mutex serializes command application with
// event recording so each recorded event reflects exactly the motor state
// its command produced.
package daemon
