package drivers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

const mockDriverName = "mock"

// LineWrite is one level written to a mock line.
type LineWrite struct {
	Line uint16
	High bool
}

type mockOutput struct {
	line  uint16
	state bool
}

// MockOutputDriver keeps line levels in memory. It records every write so
// tests can check the order pins were driven in.
type MockOutputDriver struct {
	// InitErr is returned from Init, to simulate missing hardware access.
	InitErr error

	outputs []*mockOutput
	history []LineWrite
	ready   bool

	writeTo          io.Writer
	writeStateChange bool

	lock sync.Mutex
}

func (md *MockOutputDriver) Init(ctx context.Context) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	if md.InitErr != nil {
		return md.InitErr
	}
	md.ready = true
	return nil
}

func (md *MockOutputDriver) SetOutput(line uint16) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	if !md.ready {
		return errors.New("mock driver not initialized")
	}
	if md.find(line) == nil {
		md.outputs = append(md.outputs, &mockOutput{line: line})
	}
	return nil
}

func (md *MockOutputDriver) WriteLine(line uint16, high bool) error {
	md.lock.Lock()
	defer md.lock.Unlock()

	out := md.find(line)
	if out == nil {
		return fmt.Errorf("mock output %d not found", line)
	}
	if md.writeStateChange && high != out.state {
		fmt.Fprintf(md.writeTo, "[line %d] state changed to %v\n", line, high)
	}
	out.state = high
	md.history = append(md.history, LineWrite{Line: line, High: high})
	return nil
}

func (md *MockOutputDriver) find(line uint16) *mockOutput {
	for _, out := range md.outputs {
		if out.line == line {
			return out
		}
	}
	return nil
}

// GetState returns the current level of an output line.
func (md *MockOutputDriver) GetState(line uint16) (bool, error) {
	md.lock.Lock()
	defer md.lock.Unlock()

	out := md.find(line)
	if out == nil {
		return false, fmt.Errorf("mock output %d not found", line)
	}
	return out.state, nil
}

// History returns a copy of every write so far.
func (md *MockOutputDriver) History() []LineWrite {
	md.lock.Lock()
	defer md.lock.Unlock()

	history := make([]LineWrite, len(md.history))
	copy(history, md.history)
	return history
}

func (md *MockOutputDriver) GetAllOutputs() (outputs []uint16) {
	md.lock.Lock()
	defer md.lock.Unlock()

	for _, out := range md.outputs {
		outputs = append(outputs, out.line)
	}
	return
}

func (md *MockOutputDriver) MonitorStateChanges(writer io.Writer) {
	md.lock.Lock()
	defer md.lock.Unlock()

	md.writeTo = writer
	md.writeStateChange = writer != nil
}

func (md *MockOutputDriver) Close() error {
	md.lock.Lock()
	defer md.lock.Unlock()

	md.ready = false
	return nil
}

func (md *MockOutputDriver) String() string {
	return mockDriverName
}

func (md *MockOutputDriver) IsReady() bool {
	md.lock.Lock()
	defer md.lock.Unlock()

	return md.ready
}

func (md *MockOutputDriver) DefaultLines() []uint16 {
	return []uint16{0, 1, 2, 3, 4, 5, 6, 7}
}
