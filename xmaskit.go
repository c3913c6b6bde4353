// Package xmaskit drives a bank of GPIO outputs from bytes written to a named
// pipe. Every byte is a complete bank state, bit i for pin i.
package xmaskit

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

type LoopState int32

const (
	Starting LoopState = iota
	AwaitingWriter
	Draining
)

func (ls LoopState) String() string {
	switch ls {
	case AwaitingWriter:
		return "awaiting writer"
	case Draining:
		return "draining"
	default:
		return "starting"
	}
}

// Daemon owns the pin bank and the command channel and runs the control
// loop between them.
type Daemon struct {
	bank    *PinBank
	channel *CommandChannel
	logger  *log.Logger
	open    func() (io.ReadCloser, error)

	state    atomic.Int32
	applied  atomic.Uint64
	sessions atomic.Uint64
}

func NewDaemon(bank *PinBank, channel *CommandChannel, logger *log.Logger) *Daemon {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Daemon{bank: bank, channel: channel, logger: logger, open: channel.OpenForRead}
}

// Setup initializes the hardware and creates the pipe. Both failures are
// meant to be fatal.
func (d *Daemon) Setup(ctx context.Context) error {
	if err := d.bank.Initialize(ctx); err != nil {
		return err
	}
	return d.channel.EnsureExists()
}

// Run reopens the pipe after every writer disconnect or read error and only
// returns when the pipe cannot be opened or ctx is done. The context is
// checked between sessions, a blocked open is not interrupted.
func (d *Daemon) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		d.setState(AwaitingWriter)
		pipe, err := d.open()
		if err != nil {
			return err
		}

		err = ReadLoop(pipe, d.apply)
		if err != nil {
			d.logger.Error("read failed, reopening pipe", "path", d.channel.Path, "err", err)
		} else {
			d.logger.Debug("writers gone, reopening pipe", "path", d.channel.Path)
		}
		pipe.Close()
		d.sessions.Add(1)
	}
}

func (d *Daemon) apply(b byte) {
	d.setState(Draining)
	if err := d.bank.Apply(b); err != nil {
		d.logger.Error("failed to apply command", "command", b, "err", err)
	}
	d.applied.Add(1)
	d.logger.Debug("applied command", "command", b)
}

func (d *Daemon) setState(s LoopState) {
	if LoopState(d.state.Swap(int32(s))) != s {
		d.logger.Debug("loop state", "state", s)
	}
}

func (d *Daemon) State() LoopState {
	return LoopState(d.state.Load())
}

// Applied counts command bytes applied since start.
func (d *Daemon) Applied() uint64 {
	return d.applied.Load()
}

// Sessions counts finished reading sessions, one per reopen of the pipe.
func (d *Daemon) Sessions() uint64 {
	return d.sessions.Load()
}
