package feetech

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// MotorCalibration holds travel range calibration for a single servo.
type MotorCalibration struct {
	ID       int `json:"id"`
	RangeMin int `json:"range_min"`
	RangeMax int `json:"range_max"`
}

// Calibration holds calibration data for all motors, keyed by motor name.
type Calibration map[string]MotorCalibration

// LoadCalibration loads calibration data from a JSON file produced by the
// arm setup tooling.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	for name, mc := range cal {
		if mc.ID <= 0 {
			return nil, fmt.Errorf("calibration %q: id must be positive", name)
		}
		if mc.RangeMax <= mc.RangeMin {
			return nil, fmt.Errorf("calibration %q: range_max must exceed range_min", name)
		}
	}
	return cal, nil
}

// MotorIDs returns the servo IDs in ascending order.
func (c Calibration) MotorIDs() []int {
	ids := make([]int, 0, len(c))
	for _, mc := range c {
		ids = append(ids, mc.ID)
	}
	sort.Ints(ids)
	return ids
}
