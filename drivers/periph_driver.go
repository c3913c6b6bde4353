package drivers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const periphDriverName = "periph"

// PeriphIO drives pins through the periph.io host drivers, which covers the
// Raspberry Pi and the Allwinner boards. Lines are looked up as "GPIO<n>".
type PeriphIO struct {
	InvertOutputs bool

	outputs map[uint16]gpio.PinIO
	isReady bool
}

func (pio *PeriphIO) Init(ctx context.Context) error {
	if pio.isReady {
		return nil
	}
	// host.Init can safely be called multiple times
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to init periph host drivers")
	}

	pio.outputs = make(map[uint16]gpio.PinIO)
	pio.isReady = true
	return nil
}

func (pio *PeriphIO) SetOutput(line uint16) error {
	if !pio.isReady {
		return errors.New("periph driver not initialized")
	}
	name := fmt.Sprintf("GPIO%d", line)
	pin := gpioreg.ByName(name)
	if pin == nil {
		return errors.Errorf("periph: no pin named %s", name)
	}

	if err := pin.Out(pio.level(false)); err != nil {
		return errors.Wrapf(err, "periph: failed to set %s as output", name)
	}
	pio.outputs[line] = pin
	return nil
}

func (pio *PeriphIO) WriteLine(line uint16, high bool) error {
	pin, found := pio.outputs[line]
	if !found {
		return errors.Errorf("periph line %d is not an output", line)
	}
	return pin.Out(pio.level(high))
}

func (pio *PeriphIO) level(high bool) gpio.Level {
	if pio.InvertOutputs {
		high = !high
	}
	if high {
		return gpio.High
	}
	return gpio.Low
}

func (pio *PeriphIO) String() string {
	return periphDriverName
}

func (pio *PeriphIO) IsReady() bool {
	return pio.isReady
}

func (pio *PeriphIO) DefaultLines() []uint16 {
	return BcmLines
}

func (pio *PeriphIO) Close() (err error) {
	pio.isReady = false
	for _, pin := range pio.outputs {
		if haltErr := pin.Halt(); haltErr != nil && err == nil {
			err = haltErr
		}
	}
	pio.outputs = nil
	return
}
