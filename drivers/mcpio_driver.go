package drivers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
)

const mcpioDriverName = "mcpio"
const defaultMcpBus = 1
const defaultMcpDev = 0

// McpIO drives an MCP23017 I2C port expander, lines are expander pins 0-15
// (GPA0-GPA7, GPB0-GPB7).
type McpIO struct {
	device *mcp23017.Device

	outputs []uint8
	isReady bool

	BusNo         uint8
	DevNo         uint8
	InvertOutputs bool
}

func (mcp *McpIO) Init(ctx context.Context) (err error) {
	if mcp.isReady {
		return
	}
	mcp.device, err = mcp23017.Open(mcp.BusNo, mcp.DevNo)
	if err != nil {
		err = errors.Wrapf(err, "failed to open mcp23017 (bus %d, dev %d)", mcp.BusNo, mcp.DevNo)
		return
	}

	mcp.isReady = true
	return
}

func (mcp *McpIO) SetOutput(line uint16) (err error) {
	if !mcp.isReady {
		return errors.New("mcpio driver not initialized")
	}
	if line > 15 {
		err = fmt.Errorf("output pin out of range (mcp23017 has 16 pins)")
		return
	}

	err = mcp.device.PinMode(uint8(line), mcp23017.OUTPUT)
	if err != nil {
		return
	}
	mcp.outputs = append(mcp.outputs, uint8(line))
	return
}

func (mcp *McpIO) WriteLine(line uint16, high bool) error {
	if !mcp.isOutput(line) {
		return errors.Errorf("mcpio line %d is not an output", line)
	}
	return mcp.device.DigitalWrite(uint8(line), mcp.level(high))
}

func (mcp *McpIO) level(high bool) mcp23017.PinLevel {
	return mcp23017.PinLevel(high != mcp.InvertOutputs)
}

func (mcp *McpIO) isOutput(line uint16) bool {
	for _, out := range mcp.outputs {
		if uint16(out) == line {
			return true
		}
	}
	return false
}

func (mcp *McpIO) String() string {
	return mcpioDriverName
}

func (mcp *McpIO) IsReady() bool {
	return mcp.isReady
}

func (mcp *McpIO) DefaultLines() []uint16 {
	return []uint16{0, 1, 2, 3, 4, 5, 6, 7}
}

func (mcp *McpIO) Close() error {
	if !mcp.isReady {
		return nil
	}
	// lights off, inverted boards included
	for _, out := range mcp.outputs {
		mcp.WriteLine(uint16(out), false)
	}
	mcp.isReady = false
	return mcp.device.Close()
}
