package xmaskit

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const DefaultWriteTimeout = 2 * time.Second

// ErrNoReader is returned when nothing holds the command pipe open for
// reading, usually because the daemon is not running.
var ErrNoReader = errors.New("no daemon reading the command pipe")

// Sender is the writing end of the command pipe. The pipe is opened lazily
// and kept open between sends, so the daemon sees one continuous stream.
type Sender struct {
	Path string
	// WriteTimeout bounds a write to a pipe whose reader stopped draining it.
	WriteTimeout time.Duration

	pipe *os.File
	lock sync.Mutex
}

func NewSender(path string) *Sender {
	if len(path) == 0 {
		path = DefaultPipePath
	}
	return &Sender{Path: path, WriteTimeout: DefaultWriteTimeout}
}

// Send writes commands to the pipe. It never waits for a reader to show up:
// with no daemon on the other end it fails with ErrNoReader. A pipe broken by
// a daemon restart is reopened once.
func (s *Sender) Send(commands ...byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(commands) == 0 {
		return nil
	}

	err := s.write(commands)
	if errors.Is(err, unix.EPIPE) {
		s.closePipe()
		err = s.write(commands)
	}
	if err != nil {
		s.closePipe()
	}
	return err
}

func (s *Sender) write(commands []byte) error {
	if s.pipe == nil {
		// a non-blocking open fails with ENXIO instead of waiting for a reader
		f, err := os.OpenFile(s.Path, os.O_WRONLY|unix.O_NONBLOCK, 0)
		if errors.Is(err, unix.ENXIO) {
			return errors.Wrapf(ErrNoReader, "%s", s.Path)
		}
		if err != nil {
			return errors.Wrapf(err, "%s: open for writing", s.Path)
		}
		s.pipe = f
	}

	if s.WriteTimeout > 0 {
		s.pipe.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	_, err := s.pipe.Write(commands)
	return errors.Wrapf(err, "%s: write", s.Path)
}

func (s *Sender) closePipe() {
	if s.pipe != nil {
		s.pipe.Close()
		s.pipe = nil
	}
}

func (s *Sender) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.pipe == nil {
		return nil
	}
	err := s.pipe.Close()
	s.pipe = nil
	return err
}
