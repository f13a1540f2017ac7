// Package main hosts the gantry CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// line-JSON requests against the daemon's command port: motor motion,
// episode recording control, status and history queries, and configuration
// scaffolding. It centralizes configuration resolution and daemon address
// discovery so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
