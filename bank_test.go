package xmaskit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hubertat/xmaskit/drivers"
)

var mockLines = []uint16{0, 1, 2, 3, 4, 5, 6, 7}

func assertBools(t testing.TB, got, want bool) {
	t.Helper()

	if got != want {
		t.Errorf("got %v want %v", got, want)
	}
}

func newMockBank(t testing.TB) (*PinBank, *drivers.MockOutputDriver) {
	t.Helper()

	md := &drivers.MockOutputDriver{}
	pb, err := NewPinBank(md, mockLines)
	if err != nil {
		t.Fatalf("NewPinBank returned err: %v", err)
	}
	if err := pb.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize returned err: %v", err)
	}
	return pb, md
}

func assertMockLevels(t testing.TB, md *drivers.MockOutputDriver, b byte) {
	t.Helper()

	for i, line := range mockLines {
		got, err := md.GetState(line)
		if err != nil {
			t.Fatalf("GetState(%d) returned err: %v", line, err)
		}
		want := b&(1<<i) != 0
		if got != want {
			t.Errorf("command %#02x: pin %d got %v want %v", b, i, got, want)
		}
	}
}

func TestNewPinBankLineCount(t *testing.T) {
	md := &drivers.MockOutputDriver{}

	if _, err := NewPinBank(md, []uint16{0, 1, 2}); err == nil {
		t.Error("got nil error for 3 lines")
	}
	if _, err := NewPinBank(md, make([]uint16, 9)); err == nil {
		t.Error("got nil error for 9 lines")
	}
	if _, err := NewPinBank(nil, mockLines); err == nil {
		t.Error("got nil error for nil driver")
	}
}

func TestInitializeSetsOutputs(t *testing.T) {
	_, md := newMockBank(t)

	got := md.GetAllOutputs()
	if len(got) != NumPins {
		t.Fatalf("got %d outputs want %d", len(got), NumPins)
	}
	for i, line := range mockLines {
		if got[i] != line {
			t.Errorf("output %d: got line %d want %d", i, got[i], line)
		}
	}
	if len(md.History()) != 0 {
		t.Error("Initialize wrote levels")
	}
}

func TestInitializeFailure(t *testing.T) {
	md := &drivers.MockOutputDriver{InitErr: errors.New("permission denied")}
	pb, _ := NewPinBank(md, mockLines)

	err := pb.Initialize(context.Background())
	if err == nil {
		t.Fatal("got nil error from Initialize")
	}
	if !strings.Contains(err.Error(), "mock driver") {
		t.Errorf("error does not name the driver: %v", err)
	}
	if !errors.Is(err, md.InitErr) {
		t.Errorf("error does not wrap the driver error: %v", err)
	}
}

func TestApplyEveryByte(t *testing.T) {
	pb, md := newMockBank(t)

	// walk down so every command follows one with other bits set
	for v := 255; v >= 0; v-- {
		b := byte(v)
		if err := pb.Apply(b); err != nil {
			t.Fatalf("Apply(%#02x) returned err: %v", b, err)
		}
		assertMockLevels(t, md, b)
		if pb.State() != States(b) {
			t.Errorf("State() after %#02x: got %v", b, pb.State())
		}
	}
}

func TestApplyNoCarryOver(t *testing.T) {
	pb, md := newMockBank(t)

	pb.Apply(0xFF)
	pb.Apply(0x10)
	assertMockLevels(t, md, 0x10)
}

func TestApplyIdempotent(t *testing.T) {
	pb, md := newMockBank(t)

	pb.Apply(0xA5)
	once := pb.State()
	pb.Apply(0xA5)

	if pb.State() != once {
		t.Errorf("got %v want %v", pb.State(), once)
	}
	assertMockLevels(t, md, 0xA5)
}

func TestApplyOrder(t *testing.T) {
	pb, md := newMockBank(t)

	pb.Apply(0x01)

	history := md.History()
	if len(history) != NumPins {
		t.Fatalf("got %d writes want %d", len(history), NumPins)
	}
	for i, w := range history {
		if w.Line != mockLines[i] {
			t.Errorf("write %d went to line %d want %d", i, w.Line, mockLines[i])
		}
		assertBools(t, w.High, i == 0)
	}
}

type brokenLineDriver struct {
	*drivers.MockOutputDriver
	broken uint16
}

func (bd *brokenLineDriver) WriteLine(line uint16, high bool) error {
	if line == bd.broken {
		return errors.New("i2c write failed")
	}
	return bd.MockOutputDriver.WriteLine(line, high)
}

func TestApplyKeepsGoingPastFailedLine(t *testing.T) {
	bd := &brokenLineDriver{MockOutputDriver: &drivers.MockOutputDriver{}, broken: 3}
	pb, _ := NewPinBank(bd, mockLines)
	pb.Initialize(context.Background())

	err := pb.Apply(0xFF)
	if err == nil {
		t.Fatal("got nil error with broken line")
	}
	if !strings.Contains(err.Error(), "bank pin 3") {
		t.Errorf("error does not name the pin: %v", err)
	}

	for i, line := range mockLines {
		got, err := bd.GetState(line)
		if err != nil {
			t.Fatalf("GetState returned err: %v", err)
		}
		assertBools(t, got, i != 3)
	}
}
