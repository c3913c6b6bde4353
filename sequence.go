package xmaskit

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const DefaultStepInterval = 300 * time.Millisecond

// CommandSink takes bank states, Sender is the usual one.
type CommandSink interface {
	Send(commands ...byte) error
}

// Sequence is a looped light pattern, one bank state per step.
type Sequence struct {
	Steps    []byte
	Interval time.Duration
}

// Play sends the steps to sink one per interval. loops < 1 plays until ctx is
// done. The first step goes out immediately.
func (seq *Sequence) Play(ctx context.Context, sink CommandSink, loops int) error {
	if len(seq.Steps) == 0 {
		return errors.New("sequence has no steps")
	}
	interval := seq.Interval
	if interval <= 0 {
		interval = DefaultStepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	step := 0
	loop := 0
	for {
		if err := sink.Send(seq.Steps[step]); err != nil {
			return errors.Wrapf(err, "sequence step %d", step)
		}

		step++
		if step == len(seq.Steps) {
			step = 0
			loop++
			if loops > 0 && loop >= loops {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
