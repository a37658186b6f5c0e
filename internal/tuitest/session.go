// Package tuitest drives the studymind binary inside a pseudo terminal so
// tests can wait for dashboard text and send keys.
package tuitest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const (
	defaultWidth  = 100
	defaultHeight = 32
	pollInterval  = 25 * time.Millisecond
	keySettle     = 150 * time.Millisecond
)

// Key is a raw byte sequence as a terminal would send it.
type Key []byte

var (
	Enter = Key{'\r'}
	CtrlC = Key{3}
	Esc   = Key{27}
	Up    = Key("\x1b[A")
	Down  = Key("\x1b[B")
	Space = Key{' '}
)

// bubbletea and lipgloss query the terminal on startup; without an answer
// they stall until their own timeout.
var queryReplies = []struct {
	query, reply []byte
}{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

// Options describes the program to run.
type Options struct {
	Command []string
	Dir     string
	// Env is appended to the current environment; later entries win.
	Env    []string
	Width  int
	Height int
}

// Session is a running program attached to a pseudo terminal.
type Session struct {
	cmd  *exec.Cmd
	ptmx *os.File

	mu      sync.Mutex
	output  []byte
	pending []byte

	readDone chan struct{}
	exited   chan struct{}
	exitErr  error
}

// Start launches the program in a pseudo terminal of the requested size.
func Start(opts Options) (*Session, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = environ(opts.Env)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start %s: %w", opts.Command[0], err)
	}

	s := &Session{
		cmd:      cmd,
		ptmx:     ptmx,
		readDone: make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go s.read()
	go func() {
		s.exitErr = cmd.Wait()
		close(s.exited)
	}()
	return s, nil
}

func (s *Session) read() {
	defer close(s.readDone)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.record(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) record(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append(s.output, chunk...)
	s.pending = append(s.pending, chunk...)
	for _, q := range queryReplies {
		for {
			idx := bytes.Index(s.pending, q.query)
			if idx < 0 {
				break
			}
			s.pending = s.pending[idx+len(q.query):]
			_, _ = s.ptmx.Write(q.reply)
		}
	}
	// a query can straddle two reads
	if len(s.pending) > 32 {
		s.pending = s.pending[len(s.pending)-32:]
	}
}

// Type writes text as if typed.
func (s *Session) Type(text string) error {
	_, err := s.ptmx.Write([]byte(text))
	return err
}

// Press sends each key after a short pause so the program sees them as
// separate key events.
func (s *Session) Press(keys ...Key) error {
	for _, key := range keys {
		time.Sleep(keySettle)
		if _, err := s.ptmx.Write(key); err != nil {
			return fmt.Errorf("tuitest: write key: %w", err)
		}
	}
	return nil
}

// Screen returns the plain text of the most recent frame.
func (s *Session) Screen() string {
	frames := splitFrames(s.raw())
	if len(frames) == 0 {
		return ""
	}
	return frames[len(frames)-1]
}

// WaitFor polls the output until a frame contains text and returns that frame.
func (s *Session) WaitFor(text string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if frame, ok := s.find(text); ok {
			return frame, nil
		}
		select {
		case <-s.exited:
			// drain what the program wrote before exiting
			select {
			case <-s.readDone:
			case <-time.After(time.Second):
			}
			if frame, ok := s.find(text); ok {
				return frame, nil
			}
			return s.Screen(), fmt.Errorf("tuitest: program exited before showing %q", text)
		default:
		}
		if time.Now().After(deadline) {
			return s.Screen(), fmt.Errorf("tuitest: %q not shown within %s", text, timeout)
		}
		time.Sleep(pollInterval)
	}
}

func (s *Session) find(text string) (string, bool) {
	frames := splitFrames(s.raw())
	for i := len(frames) - 1; i >= 0; i-- {
		if strings.Contains(frames[i], text) {
			return frames[i], true
		}
	}
	return "", false
}

// Quit sends ctrl+c unless the program already exited, then waits for it.
// An exit caused by the interrupt itself is not an error.
func (s *Session) Quit(timeout time.Duration) error {
	select {
	case <-s.exited:
	default:
		_ = s.Press(CtrlC)
	}
	select {
	case <-s.exited:
	case <-time.After(timeout):
		_ = s.cmd.Process.Kill()
		<-s.exited
		_ = s.ptmx.Close()
		<-s.readDone
		return fmt.Errorf("tuitest: program still running after %s", timeout)
	}
	_ = s.ptmx.Close()
	<-s.readDone

	err := s.exitErr
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && (exitErr.ExitCode() == 130 || strings.Contains(err.Error(), "signal: interrupt")) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tuitest: program exited with error: %w", err)
	}
	return nil
}

func (s *Session) raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.output...)
}

func environ(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}
