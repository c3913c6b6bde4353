package drivers

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BcmLines are the BCM numbers of wiringPi pins 0-7 on a Raspberry Pi header.
var BcmLines = []uint16{17, 18, 27, 22, 23, 24, 25, 4}

// OutputDriver is a bank of digital output lines addressed by number.
type OutputDriver interface {
	Init(ctx context.Context) error
	SetOutput(line uint16) error
	WriteLine(line uint16, high bool) error
	Close() error
	String() string
	IsReady() bool
	DefaultLines() []uint16
}

func MapAllOutputDrivers() map[string]OutputDriver {
	drivers := []OutputDriver{
		&GpIO{},
		&McpIO{BusNo: defaultMcpBus, DevNo: defaultMcpDev},
		&PeriphIO{},
		&CdevIO{Chip: defaultCdevChip},
		&MockOutputDriver{},
	}

	mapped := make(map[string]OutputDriver)
	for _, driver := range drivers {
		mapped[driver.String()] = driver
	}
	return mapped
}

func GetOutputDriver(name string) (OutputDriver, error) {
	driver, found := MapAllOutputDrivers()[strings.ToLower(strings.TrimSpace(name))]
	if !found {
		return nil, errors.Errorf("unknown output driver: %q", name)
	}
	return driver, nil
}

// ParseLines reads a comma separated list of line numbers, e.g. "17,18,27".
func ParseLines(list string) (lines []uint16, err error) {
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if len(field) == 0 {
			continue
		}
		line, parseErr := strconv.ParseUint(field, 10, 16)
		if parseErr != nil {
			err = errors.Wrapf(parseErr, "bad line number %q", field)
			return
		}
		lines = append(lines, uint16(line))
	}
	return
}
