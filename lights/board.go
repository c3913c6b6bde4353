// Package lights keeps the state of the 8 lights on the xmas board and pushes
// every change to the daemon pipe. It is the shared state behind the HTTP,
// HomeKit and MQTT front ends of xmasweb.
package lights

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hubertat/xmaskit"
)

// LightOnDelay is how long a light has to wait before it can be lit again,
// so nobody flickers the relays many times a second.
const LightOnDelay = 2 * time.Second

var (
	ErrNoSuchLight = errors.New("no such light")
	ErrTooSoon     = errors.New("light was lit too recently")
)

type Light struct {
	Enabled bool
	lastLit time.Time
}

type Board struct {
	sink      xmaskit.CommandSink
	lights    [xmaskit.NumPins]Light
	listeners []func(bitfield byte)

	now  func() time.Time
	lock sync.Mutex
}

func NewBoard(sink xmaskit.CommandSink) *Board {
	return &Board{sink: sink, now: time.Now}
}

// OnChange registers fn to be called with the new bitfield after every
// change. Listeners run outside the board lock.
func (b *Board) OnChange(fn func(bitfield byte)) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.listeners = append(b.listeners, fn)
}

func (b *Board) Enable(index int) error {
	return b.update(index, func(l *Light, now time.Time) (bool, error) {
		if l.Enabled {
			return false, nil
		}
		return enable(l, now, index)
	})
}

func (b *Board) Disable(index int) error {
	return b.update(index, func(l *Light, now time.Time) (bool, error) {
		if !l.Enabled {
			return false, nil
		}
		l.Enabled = false
		return true, nil
	})
}

func (b *Board) Toggle(index int) error {
	return b.update(index, func(l *Light, now time.Time) (bool, error) {
		if l.Enabled {
			l.Enabled = false
			return true, nil
		}
		return enable(l, now, index)
	})
}

func enable(l *Light, now time.Time, index int) (bool, error) {
	if !l.lastLit.IsZero() && now.Before(l.lastLit.Add(LightOnDelay)) {
		recordRejected()
		return false, errors.Wrapf(ErrTooSoon, "light %d", index)
	}
	l.Enabled = true
	l.lastLit = now
	return true, nil
}

func (b *Board) SetLight(index int, on bool) error {
	if on {
		return b.Enable(index)
	}
	return b.Disable(index)
}

// Set replaces the whole board state. It is an explicit full state, so the
// relighting delay does not apply.
func (b *Board) Set(bitfield byte) error {
	b.lock.Lock()
	now := b.now()
	states := xmaskit.States(bitfield)
	for i := range b.lights {
		if states[i] && !b.lights[i].Enabled {
			b.lights[i].lastLit = now
		}
		b.lights[i].Enabled = states[i]
	}
	return b.commitAndUnlock()
}

func (b *Board) IsEnabled(index int) (bool, error) {
	if index < 0 || index >= xmaskit.NumPins {
		return false, errors.Wrapf(ErrNoSuchLight, "index %d", index)
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	return b.lights[index].Enabled, nil
}

func (b *Board) States() [xmaskit.NumPins]bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.states()
}

func (b *Board) Bitfield() byte {
	return xmaskit.Bitfield(b.States())
}

func (b *Board) states() (states [xmaskit.NumPins]bool) {
	for i, l := range b.lights {
		states[i] = l.Enabled
	}
	return
}

func (b *Board) update(index int, change func(*Light, time.Time) (bool, error)) error {
	if index < 0 || index >= xmaskit.NumPins {
		return errors.Wrapf(ErrNoSuchLight, "index %d", index)
	}

	b.lock.Lock()
	changed, err := change(&b.lights[index], b.now())
	if err != nil || !changed {
		b.lock.Unlock()
		return err
	}
	return b.commitAndUnlock()
}

// commitAndUnlock sends the state while still holding the lock, so the pipe
// sees changes in the order they were made.
func (b *Board) commitAndUnlock() error {
	bitfield := xmaskit.Bitfield(b.states())
	err := b.sink.Send(bitfield)
	listeners := append([]func(byte){}, b.listeners...)
	b.lock.Unlock()

	recordSent(err)
	for _, fn := range listeners {
		fn(bitfield)
	}
	return errors.Wrap(err, "failed to send board state")
}
