package feetech_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gantry/internal/motor/feetech"
)

func writeCalibration(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write calibration: %v", err)
	}
	return path
}

func TestLoadCalibration(t *testing.T) {
	path := writeCalibration(t, `{
  "base": {"id": 1, "range_min": 800, "range_max": 3200},
  "shoulder": {"id": 2, "range_min": 900, "range_max": 3100}
}`)

	cal, err := feetech.LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration failed: %v", err)
	}
	if len(cal) != 2 {
		t.Fatalf("expected 2 motors, got %d", len(cal))
	}
	if cal["base"].RangeMax != 3200 {
		t.Fatalf("unexpected base calibration: %+v", cal["base"])
	}
	if ids := cal.MotorIDs(); !reflect.DeepEqual(ids, []int{1, 2}) {
		t.Fatalf("unexpected motor ids %v", ids)
	}
}

func TestLoadCalibrationRejectsInvalidRanges(t *testing.T) {
	path := writeCalibration(t, `{"base": {"id": 1, "range_min": 3200, "range_max": 800}}`)
	if _, err := feetech.LoadCalibration(path); err == nil || !strings.Contains(err.Error(), "range_max") {
		t.Fatalf("expected range error, got %v", err)
	}

	path = writeCalibration(t, `{"base": {"id": 0, "range_min": 800, "range_max": 3200}}`)
	if _, err := feetech.LoadCalibration(path); err == nil || !strings.Contains(err.Error(), "id") {
		t.Fatalf("expected id error, got %v", err)
	}
}

func TestLoadCalibrationMissingFile(t *testing.T) {
	if _, err := feetech.LoadCalibration(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
