package motor

import (
	"context"
	"fmt"
)

// Direction is a motor's commanded motion direction.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionInc  Direction = "inc"
	DirectionDec  Direction = "dec"
)

// ParseDirection maps a wire direction string to a Direction.
func ParseDirection(value string) (Direction, bool) {
	switch value {
	case string(DirectionInc):
		return DirectionInc, true
	case string(DirectionDec):
		return DirectionDec, true
	default:
		return DirectionNone, false
	}
}

// Definition declares one motor of the arm.
type Definition struct {
	ID   int
	Name string
}

// State is a point-in-time copy of one motor's logical state. A motor is
// idle when Direction is DirectionNone, moving otherwise.
type State struct {
	ID        int
	Name      string
	Position  int
	Direction Direction
	Speed     int
}

// Moving reports whether the motor has commanded motion.
func (s State) Moving() bool {
	return s.Direction != DirectionNone
}

// Actuator is the external motor-driver collaborator. SetMotor commands
// continuous motion toward the motor's travel limit in the given direction
// (or halts it when direction is DirectionNone) and returns the resulting
// position as reported by the hardware.
type Actuator interface {
	SetMotor(ctx context.Context, id int, direction Direction, speed int) (int, error)
}

// ActuationError reports a failed driver call. The registry's logical
// state is unchanged when this is returned.
type ActuationError struct {
	Motor string
	Err   error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("actuate %s: %v", e.Motor, e.Err)
}

func (e *ActuationError) Unwrap() error { return e.Err }

// ErrUnknownMotor is returned when a command names a motor that is not
// configured.
var ErrUnknownMotor = fmt.Errorf("unknown motor")

// Registry holds the authoritative logical state of every motor. It does
// not lock; callers serialize access through the daemon controller so that
// a state snapshot and its triggering command stay consistent.
type Registry struct {
	actuator Actuator
	motors   map[string]*State
	order    []string
}

// NewRegistry builds a registry with all motors idle at position zero.
func NewRegistry(actuator Actuator, defs []Definition) *Registry {
	r := &Registry{
		actuator: actuator,
		motors:   make(map[string]*State, len(defs)),
		order:    make([]string, 0, len(defs)),
	}
	for _, def := range defs {
		r.motors[def.Name] = &State{
			ID:        def.ID,
			Name:      def.Name,
			Direction: DirectionNone,
		}
		r.order = append(r.order, def.Name)
	}
	return r
}

// Apply commands continuous motion for one motor and returns the resulting
// state. On actuation failure the logical state is left unchanged.
func (r *Registry) Apply(ctx context.Context, name string, direction Direction, speed int) (State, error) {
	m, ok := r.motors[name]
	if !ok {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownMotor, name)
	}
	pos, err := r.actuator.SetMotor(ctx, m.ID, direction, speed)
	if err != nil {
		return State{}, &ActuationError{Motor: name, Err: err}
	}
	m.Position = pos
	m.Direction = direction
	m.Speed = speed
	return *m, nil
}

// Halt stops one motor and returns the resulting state.
func (r *Registry) Halt(ctx context.Context, name string) (State, error) {
	return r.Apply(ctx, name, DirectionNone, 0)
}

// HaltAll stops every motor in definition order. All motors are attempted
// even after a failure; the states of the motors that stopped are returned
// along with the first error encountered.
func (r *Registry) HaltAll(ctx context.Context) ([]State, error) {
	stopped := make([]State, 0, len(r.order))
	var firstErr error
	for _, name := range r.order {
		st, err := r.Halt(ctx, name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stopped = append(stopped, st)
	}
	return stopped, firstErr
}

// Snapshot returns a copy of one motor's state.
func (r *Registry) Snapshot(name string) (State, bool) {
	m, ok := r.motors[name]
	if !ok {
		return State{}, false
	}
	return *m, true
}

// Snapshots returns copies of every motor's state in definition order.
func (r *Registry) Snapshots() []State {
	out := make([]State, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.motors[name])
	}
	return out
}
