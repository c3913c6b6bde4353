package xmaskit

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// openReader opens the read end without waiting for a writer.
func openReader(t testing.TB, cc *CommandChannel) *os.File {
	t.Helper()

	if err := cc.EnsureExists(); err != nil {
		t.Fatal(err)
	}
	pipe, err := os.OpenFile(cc.Path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("open for reading: %v", err)
	}
	t.Cleanup(func() { pipe.Close() })
	return pipe
}

func TestSenderWritesToPipe(t *testing.T) {
	cc := NewCommandChannel(filepath.Join(t.TempDir(), "xmas"))
	pipe := openReader(t, cc)

	s := NewSender(cc.Path)
	if err := s.Send(0x01, 0x02); err != nil {
		t.Fatalf("Send returned err: %v", err)
	}
	if err := s.Send(0x04); err != nil {
		t.Fatalf("Send returned err: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned err: %v", err)
	}

	// the writer is gone, the buffered bytes are still there
	got, err := io.ReadAll(pipe)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x04}) {
		t.Errorf("got %v", got)
	}
}

func TestSenderNoReader(t *testing.T) {
	cc := NewCommandChannel(filepath.Join(t.TempDir(), "xmas"))
	if err := cc.EnsureExists(); err != nil {
		t.Fatal(err)
	}
	s := NewSender(cc.Path)

	done := make(chan error, 1)
	go func() {
		done <- s.Send(0x01)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, ErrNoReader) {
			t.Errorf("got err %v want ErrNoReader", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("Send blocked with nobody reading the pipe")
	}

	// a reader showing up later is picked up by the next send
	pipe := openReader(t, cc)
	if err := s.Send(0x02); err != nil {
		t.Fatalf("Send after reader opened returned err: %v", err)
	}
	s.Close()
	got, _ := io.ReadAll(pipe)
	if !bytes.Equal(got, []byte{0x02}) {
		t.Errorf("got %v", got)
	}
}

func TestSenderNothingToSend(t *testing.T) {
	s := NewSender(filepath.Join(t.TempDir(), "missing"))

	if err := s.Send(); err != nil {
		t.Errorf("Send without commands returned err: %v", err)
	}
}

func TestSenderMissingPipe(t *testing.T) {
	s := NewSender(filepath.Join(t.TempDir(), "missing"))

	if err := s.Send(0x01); err == nil {
		t.Error("got nil error sending to missing pipe")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close returned err: %v", err)
	}
}

func TestSenderDefaultPath(t *testing.T) {
	if got := NewSender("").Path; got != DefaultPipePath {
		t.Errorf("got %s want %s", got, DefaultPipePath)
	}
}
