// Package console provides key sources and line prompters for the
// keyboard dispatcher: a raw-mode terminal and a plain reader.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrInterrupted is returned by ReadKey when the operator presses Ctrl-C
// while the terminal is in raw mode.
var ErrInterrupted = errors.New("interrupted")

const (
	keyInterrupt = 0x03
	keyEOT       = 0x04
)

// Terminal reads single key presses from a tty without waiting for Enter
type Terminal struct {
	mu     sync.Mutex
	fd     int
	reader *bufio.Reader
	out    io.Writer
	state  *term.State
	closed bool
}

// OpenTerminal puts in into raw mode. Close must be called to restore it.
func OpenTerminal(in *os.File, out io.Writer) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", in.Name())
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	return &Terminal{
		fd:     fd,
		reader: bufio.NewReader(in),
		out:    out,
		state:  state,
	}, nil
}

// ReadKey blocks for one key press
func (t *Terminal) ReadKey() (rune, error) {
	r, _, err := t.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	switch r {
	case keyInterrupt:
		return 0, ErrInterrupted
	case keyEOT:
		return 0, io.EOF
	}
	return r, nil
}

// Prompt leaves raw mode for the duration of one line so the operator gets
// echo and line editing.
func (t *Terminal) Prompt(prompt string) (string, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", os.ErrClosed
	}
	if err := term.Restore(t.fd, t.state); err != nil {
		t.mu.Unlock()
		return "", fmt.Errorf("failed to leave raw mode: %w", err)
	}
	t.mu.Unlock()

	fmt.Fprint(t.out, prompt)
	line, readErr := t.reader.ReadString('\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		state, err := term.MakeRaw(t.fd)
		if err != nil {
			return "", fmt.Errorf("failed to re-enter raw mode: %w", err)
		}
		t.state = state
	}

	if readErr != nil && line == "" {
		return "", readErr
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Output wraps w so newlines also return the carriage, which raw mode
// no longer does on its own.
func (t *Terminal) Output() io.Writer {
	return &crlfWriter{w: t.out}
}

// Close restores the terminal. Safe to call more than once.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return term.Restore(t.fd, t.state)
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\n", "\r\n")
	if _, err := io.WriteString(c.w, s); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Reader is a console over any io.Reader, used when stdin is not a tty.
// Line endings between keys are skipped.
type Reader struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewReader creates a console reading from r and echoing prompts to out
func NewReader(r io.Reader, out io.Writer) *Reader {
	if out == nil {
		out = io.Discard
	}
	return &Reader{reader: bufio.NewReader(r), out: out}
}

// ReadKey returns the next non-newline rune
func (c *Reader) ReadKey() (rune, error) {
	for {
		r, _, err := c.reader.ReadRune()
		if err != nil {
			return 0, err
		}
		if r == '\n' || r == '\r' {
			continue
		}
		return r, nil
	}
}

// Prompt writes prompt and reads the rest of the current line
func (c *Reader) Prompt(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
