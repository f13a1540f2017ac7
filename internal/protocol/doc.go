// Package protocol defines the line-delimited JSON command contract spoken
// over TCP between the daemon and its clients (CLI, bridges, test
// harnesses), plus a small client implementation.
package protocol
