package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mukuyev/elevator-control/internal/constants"
)

// Floor represents a floor identifier in the contiguous Bk/k labeling scheme.
// Basement floor "Bk" maps to the integer 1-k, and above-ground floor "k" maps
// to k itself, so the encoding is gapless across the configured range: the
// basements occupy the non-positive integers and the ground-and-up floors
// occupy the positive integers, with no value shared or skipped.
type Floor int

// NewFloor creates a Floor from its already-decoded integer value.
func NewFloor(value int) Floor {
	return Floor(value)
}

// ParseFloor decodes a "Bk" or "k" label into its Floor value.
func ParseFloor(label string) (Floor, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Floor(0), domainErr(ErrInvalidFloorLabel, label)
	}

	if rest, ok := strings.CutPrefix(label, "B"); ok {
		k, err := strconv.Atoi(rest)
		if err != nil || k <= 0 {
			return Floor(0), domainErr(ErrInvalidFloorLabel, label)
		}
		return Floor(1 - k), nil
	}

	k, err := strconv.Atoi(label)
	if err != nil || k <= 0 {
		return Floor(0), domainErr(ErrInvalidFloorLabel, label)
	}
	return Floor(k), nil
}

// NewFloorWithValidation parses and bounds-checks a floor label in one step.
func NewFloorWithValidation(label string) (Floor, error) {
	f, err := ParseFloor(label)
	if err != nil {
		return f, err
	}
	if !f.IsValidAbsolute() {
		return f, domainErr(ErrFloorOutOfRange, label).WithContext("floor", f.Value())
	}
	return f, nil
}

func domainErr(base *DomainError, label string) *DomainError {
	return NewValidationError(base.Message, nil).WithContext("label", label)
}

// Value returns the underlying integer value of the floor.
func (f Floor) Value() int {
	return int(f)
}

// IsValid checks if the floor is within the given inclusive range.
func (f Floor) IsValid(minFloor, maxFloor Floor) bool {
	return f >= minFloor && f <= maxFloor
}

// IsValidAbsolute checks if the floor is within the system's absolute limits.
func (f Floor) IsValidAbsolute() bool {
	return int(f) >= constants.MinFloorValue && int(f) <= constants.MaxFloorValue
}

// String renders the floor back into its "Bk" or "k" label.
func (f Floor) String() string {
	if f <= 0 {
		return fmt.Sprintf("B%d", 1-int(f))
	}
	return strconv.Itoa(int(f))
}

// IsAbove reports whether this floor is above another floor.
func (f Floor) IsAbove(other Floor) bool {
	return f > other
}

// IsBelow reports whether this floor is below another floor.
func (f Floor) IsBelow(other Floor) bool {
	return f < other
}

// IsEqual reports whether this floor equals another floor.
func (f Floor) IsEqual(other Floor) bool {
	return f == other
}

// Increment returns the next floor up, skipping no values since the encoding
// is gapless; it saturates at the configured maximum.
func (f Floor) Increment() Floor {
	if int(f) >= constants.MaxFloorValue {
		return f
	}
	return f + 1
}

// Decrement returns the next floor down; it saturates at the configured
// minimum.
func (f Floor) Decrement() Floor {
	if int(f) <= constants.MinFloorValue {
		return f
	}
	return f - 1
}
