package xmaskit

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const DefaultPipePath = "/tmp/xmas"

// PipeMode lets the owner read and write and anyone else write.
const PipeMode = 0o622

// CommandChannel is the named pipe commands arrive on.
type CommandChannel struct {
	Path string
}

func NewCommandChannel(path string) *CommandChannel {
	if len(path) == 0 {
		path = DefaultPipePath
	}
	return &CommandChannel{Path: path}
}

// EnsureExists creates the pipe. A pipe that is already there is fine, any
// other file at Path is not.
func (cc *CommandChannel) EnsureExists() error {
	err := unix.Mkfifo(cc.Path, PipeMode)
	if err == nil {
		// mkfifo honours the umask, chmod does not
		return errors.Wrapf(os.Chmod(cc.Path, PipeMode), "%s: chmod", cc.Path)
	}
	if !errors.Is(err, unix.EEXIST) {
		return errors.Wrapf(err, "%s: mkfifo", cc.Path)
	}

	var st unix.Stat_t
	if err := unix.Stat(cc.Path, &st); err != nil {
		return errors.Wrapf(err, "%s: stat", cc.Path)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFIFO {
		return errors.Errorf("%s: exists and is not a named pipe", cc.Path)
	}
	return nil
}

// OpenForRead blocks until a writer opens the other end.
func (cc *CommandChannel) OpenForRead() (io.ReadCloser, error) {
	f, err := os.OpenFile(cc.Path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: open", cc.Path)
	}
	return f, nil
}

// ReadLoop calls onCommand for every byte read from r, in order. It returns
// nil once every writer has closed and the stream is drained, or the read
// error otherwise.
func ReadLoop(r io.Reader, onCommand func(byte)) error {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "error reading from command pipe")
		}
		onCommand(b)
	}
}
