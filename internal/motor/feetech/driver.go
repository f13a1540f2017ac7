// Package feetech actuates the arm's servos over a Feetech serial bus.
// It implements motor.Actuator: a move command targets the calibrated
// travel limit in the requested direction and the servo runs toward it
// until a halt re-commands its current position.
package feetech

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"gantry/internal/motor"
)

// Driver drives servos through a shared bus connection.
type Driver struct {
	bus    *feetech.Bus
	group  *feetech.ServoGroup
	servos map[int]*feetech.Servo
	byID   map[int]MotorCalibration
}

// Open connects to the servo bus and prepares a group for the calibrated
// servo IDs. A bus scan discovers each servo's model so moves can be
// issued as timed writes honoring the commanded speed.
func Open(ctx context.Context, port string, cal Calibration) (*Driver, error) {
	if len(cal) == 0 {
		return nil, fmt.Errorf("calibration is empty")
	}
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	ids := cal.MotorIDs()
	group := feetech.NewServoGroupByIDs(bus, ids...)

	found, err := bus.Scan(ctx, ids[0], ids[len(ids)-1])
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("scan servo bus: %w", err)
	}
	servos := make(map[int]*feetech.Servo, len(found))
	for _, s := range found {
		servos[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	byID := make(map[int]MotorCalibration, len(cal))
	for _, mc := range cal {
		byID[mc.ID] = mc
	}

	return &Driver{bus: bus, group: group, servos: servos, byID: byID}, nil
}

// Close closes the bus connection.
func (d *Driver) Close() error {
	return d.bus.Close()
}

// Enable enables torque on all servos.
func (d *Driver) Enable(ctx context.Context) error {
	return d.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (d *Driver) Disable(ctx context.Context) error {
	return d.group.DisableAll(ctx)
}

// SetMotor commands one servo per motor.Actuator. Direction inc targets
// the calibrated maximum, dec the minimum; DirectionNone re-commands the
// current position, which halts the servo. The returned position is read
// back from the hardware after the write.
func (d *Driver) SetMotor(ctx context.Context, id int, direction motor.Direction, speed int) (int, error) {
	cal, ok := d.byID[id]
	if !ok {
		return 0, fmt.Errorf("servo %d not calibrated", id)
	}

	positions, err := d.group.Positions(ctx)
	if err != nil {
		return 0, fmt.Errorf("read positions: %w", err)
	}
	current, ok := positions[id]
	if !ok {
		return 0, fmt.Errorf("servo %d missing from position read", id)
	}

	var target int
	switch direction {
	case motor.DirectionInc:
		target = cal.RangeMax
	case motor.DirectionDec:
		target = cal.RangeMin
	default:
		target = current
	}

	if err := d.writeTarget(ctx, id, current, target, speed); err != nil {
		return 0, fmt.Errorf("write position: %w", err)
	}

	// Report where the servo actually is, not where it was told to go.
	after, err := d.group.Positions(ctx)
	if err != nil {
		return current, nil
	}
	if pos, ok := after[id]; ok {
		return pos, nil
	}
	return current, nil
}

// writeTarget issues a timed write so the servo covers the distance at
// the commanded speed (steps per second). Without a positive speed, or
// for servos the bus scan did not identify, it falls back to an untimed
// write at the servo's configured velocity profile.
func (d *Driver) writeTarget(ctx context.Context, id, current, target, speed int) error {
	if servo := d.servos[id]; servo != nil {
		if ms := moveDurationMs(current, target, speed); ms > 0 {
			return servo.SetPositionWithTime(ctx, target, ms)
		}
	}
	return d.group.SetPositions(ctx, feetech.PositionMap{id: target})
}

// moveDurationMs converts a travel distance and a speed in steps per
// second into a move duration in milliseconds. Returns 0 when no timed
// write applies (no distance, or no usable speed).
func moveDurationMs(current, target, speed int) int {
	if speed <= 0 || target == current {
		return 0
	}
	distance := target - current
	if distance < 0 {
		distance = -distance
	}
	return distance * 1000 / speed
}
