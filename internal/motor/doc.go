// Package motor owns the logical state of the arm's motors and defines the
// Actuator boundary to the physical servo driver.
package motor
