package xmaskit

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/pkg/errors"
)

// NumPins is the width of the pin bank and of a command byte.
const NumPins = 8

// LineDriver is the hardware access layer the pin bank drives. Lines are
// addressed by the driver's own numbering (BCM number, expander pin, chip
// offset).
type LineDriver interface {
	Init(ctx context.Context) error
	SetOutput(line uint16) error
	WriteLine(line uint16, high bool) error
}

// PinBank maps bank index i to a hardware line and applies command bytes to
// the whole bank at once.
type PinBank struct {
	driver LineDriver
	lines  [NumPins]uint16
	state  [NumPins]bool
	ready  bool
}

func NewPinBank(driver LineDriver, lines []uint16) (*PinBank, error) {
	if driver == nil {
		return nil, perrors.New("pin bank needs a line driver")
	}
	if len(lines) != NumPins {
		return nil, perrors.Errorf("pin bank takes exactly %d lines, got %d", NumPins, len(lines))
	}

	pb := &PinBank{driver: driver}
	copy(pb.lines[:], lines)
	return pb, nil
}

// Initialize opens the hardware access layer and switches every line to
// output mode. Calling it again is a no-op.
func (pb *PinBank) Initialize(ctx context.Context) error {
	if pb.ready {
		return nil
	}

	if err := pb.driver.Init(ctx); err != nil {
		return perrors.Wrapf(err, "failed to init %s", driverName(pb.driver))
	}
	for i, line := range pb.lines {
		if err := pb.driver.SetOutput(line); err != nil {
			return perrors.Wrapf(err, "failed to set bank pin %d (line %d) as output", i, line)
		}
	}

	pb.ready = true
	return nil
}

// Apply writes bit i of b to pin i, bit 0 first. All pins are written even
// when one of them fails.
func (pb *PinBank) Apply(b byte) error {
	var errs []error
	for i, line := range pb.lines {
		high := b&(1<<i) != 0
		if err := pb.driver.WriteLine(line, high); err != nil {
			errs = append(errs, perrors.Wrapf(err, "bank pin %d (line %d)", i, line))
			continue
		}
		pb.state[i] = high
	}

	return errors.Join(errs...)
}

// State returns the last applied level of every pin.
func (pb *PinBank) State() [NumPins]bool {
	return pb.state
}

// Lines returns the hardware line behind every bank pin.
func (pb *PinBank) Lines() [NumPins]uint16 {
	return pb.lines
}

func driverName(driver LineDriver) string {
	if s, ok := driver.(fmt.Stringer); ok {
		return s.String() + " driver"
	}
	return "line driver"
}
