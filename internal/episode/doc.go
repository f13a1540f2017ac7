// Package episode records synchronized robot episodes to disk. An episode
// is a sequentially-numbered directory holding metadata.json plus one
// robot-state file, one action file, and zero or more camera frames per
// event, all artifacts of an event sharing a single timestamp and
// sequence index. The Logger owns the active episode and serializes event
// writes; timeout and disk-pressure watchdogs finalize episodes through
// the same path manual stops use.
package episode
