package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

const gpioDriverName = "gpio"

// GpIO drives Raspberry Pi header pins through /dev/gpiomem, lines are BCM
// numbers.
type GpIO struct {
	InvertOutputs bool

	outputs []uint8
	isReady bool
}

func (gp *GpIO) Init(ctx context.Context) error {
	if gp.isReady {
		return nil
	}
	err := rpio.Open()
	if err != nil {
		return errors.Wrap(err, "failed to open gpio memory, do you have root privileges?")
	}

	gp.isReady = true
	return nil
}

func (gp *GpIO) SetOutput(line uint16) error {
	if !gp.isReady {
		return errors.New("gpio driver not initialized")
	}
	if line > 255 {
		return errors.Errorf("outpin out of range (gpio takes uint8 pin)")
	}

	rpio.Pin(line).Output()
	gp.outputs = append(gp.outputs, uint8(line))
	return nil
}

func (gp *GpIO) WriteLine(line uint16, high bool) error {
	if !gp.isOutput(line) {
		return errors.Errorf("gpio line %d is not an output", line)
	}
	if gp.high(high) {
		rpio.Pin(line).High()
	} else {
		rpio.Pin(line).Low()
	}
	return nil
}

func (gp *GpIO) high(high bool) bool {
	return high != gp.InvertOutputs
}

func (gp *GpIO) isOutput(line uint16) bool {
	for _, out := range gp.outputs {
		if uint16(out) == line {
			return true
		}
	}
	return false
}

func (gp *GpIO) String() string {
	return gpioDriverName
}

func (gp *GpIO) IsReady() bool {
	return gp.isReady
}

func (gp *GpIO) DefaultLines() []uint16 {
	return BcmLines
}

func (gp *GpIO) Close() error {
	if !gp.isReady {
		return nil
	}
	for _, out := range gp.outputs {
		gp.WriteLine(uint16(out), false)
	}
	gp.outputs = nil
	gp.isReady = false
	return rpio.Close()
}
