//go:build linux

package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

type cdevLines = map[uint16]*gpiocdev.Line

// Init checks the chip can be opened, lines are requested one by one in
// SetOutput.
func (cd *CdevIO) Init(ctx context.Context) error {
	if cd.isReady {
		return nil
	}
	chip, err := gpiocdev.NewChip(cd.chipName(), gpiocdev.WithConsumer(cdevConsumer))
	if err != nil {
		return errors.Wrapf(err, "failed to open gpio chip %s", cd.chipName())
	}
	chip.Close()

	cd.lines = make(cdevLines)
	cd.isReady = true
	return nil
}

func (cd *CdevIO) SetOutput(line uint16) error {
	if !cd.isReady {
		return errors.New("gpiocdev driver not initialized")
	}
	if _, found := cd.lines[line]; found {
		return nil
	}

	l, err := gpiocdev.RequestLine(cd.chipName(), int(line),
		gpiocdev.WithConsumer(cdevConsumer),
		gpiocdev.AsOutput(cd.value(false)))
	if err != nil {
		return errors.Wrapf(err, "failed to request %s line %d as output", cd.chipName(), line)
	}
	cd.lines[line] = l
	return nil
}

func (cd *CdevIO) WriteLine(line uint16, high bool) error {
	l, found := cd.lines[line]
	if !found {
		return errors.Errorf("gpiocdev line %d is not an output", line)
	}
	return l.SetValue(cd.value(high))
}

func (cd *CdevIO) Close() (err error) {
	cd.isReady = false
	for _, l := range cd.lines {
		// revert lines to input on the way out
		l.Reconfigure(gpiocdev.AsInput)
		if closeErr := l.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	cd.lines = nil
	return
}
