package domain

import (
	"testing"

	"github.com/mukuyev/elevator-control/internal/constants"
)

func TestParseFloor(t *testing.T) {
	tests := []struct {
		label   string
		want    int
		wantErr bool
	}{
		{"B1", 0, false},
		{"B2", -1, false},
		{"B98", -97, false},
		{"1", 1, false},
		{"999", 999, false},
		{"", 0, true},
		{"B0", 0, true},
		{"0", 0, true},
		{"Bx", 0, true},
		{"x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseFloor(tt.label)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFloor(%q) expected error, got %v", tt.label, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFloor(%q) unexpected error: %v", tt.label, err)
			}
			if got.Value() != tt.want {
				t.Errorf("ParseFloor(%q) = %d, want %d", tt.label, got.Value(), tt.want)
			}
		})
	}
}

func TestFloorStringRoundTrip(t *testing.T) {
	labels := []string{"B98", "B2", "B1", "1", "2", "999"}
	for _, label := range labels {
		f, err := ParseFloor(label)
		if err != nil {
			t.Fatalf("ParseFloor(%q) failed: %v", label, err)
		}
		if got := f.String(); got != label {
			t.Errorf("Floor(%d).String() = %q, want %q", f.Value(), got, label)
		}
	}
}

func TestFloorOrderingIsContiguous(t *testing.T) {
	lo, err := ParseFloor("B99")
	if err != nil {
		t.Fatalf("ParseFloor(B99) failed: %v", err)
	}
	hi, err := ParseFloor("999")
	if err != nil {
		t.Fatalf("ParseFloor(999) failed: %v", err)
	}
	if lo.Value() != constants.MinFloorValue {
		t.Errorf("lowest floor value = %d, want %d", lo.Value(), constants.MinFloorValue)
	}
	if hi.Value() != constants.MaxFloorValue {
		t.Errorf("highest floor value = %d, want %d", hi.Value(), constants.MaxFloorValue)
	}
	if !lo.IsBelow(hi) {
		t.Error("expected B99 to be below 999")
	}
}

func TestFloorIncrementDecrementSaturate(t *testing.T) {
	max := NewFloor(constants.MaxFloorValue)
	if max.Increment() != max {
		t.Error("Increment at max should saturate")
	}

	min := NewFloor(constants.MinFloorValue)
	if min.Decrement() != min {
		t.Error("Decrement at min should saturate")
	}
}

func TestNewFloorWithValidationRejectsOutOfRange(t *testing.T) {
	_, err := NewFloorWithValidation("B100")
	if err == nil {
		t.Error("expected error for floor outside configured range")
	}
}
