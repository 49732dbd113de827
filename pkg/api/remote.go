package api

import (
	"errors"
	"io"
	"sync"
	"unicode/utf8"
)

// ErrBadKey is returned by Push for a key that is not exactly one rune
var ErrBadKey = errors.New("key must be a single character")

// RemoteConsole feeds keys and prompt answers received over a websocket to
// the dispatcher. It implements keyboard.KeySource, keyboard.Prompter and
// io.Writer for dispatcher output.
type RemoteConsole struct {
	keys     chan rune
	lines    chan string
	outbound chan ServerMessage

	closeOnce sync.Once
	done      chan struct{}
}

// NewRemoteConsole creates a console buffering up to buffer inbound keys
func NewRemoteConsole(buffer int) *RemoteConsole {
	if buffer <= 0 {
		buffer = 16
	}
	return &RemoteConsole{
		keys:     make(chan rune, buffer),
		lines:    make(chan string, 1),
		outbound: make(chan ServerMessage, 64),
		done:     make(chan struct{}),
	}
}

// ReadKey blocks until a key arrives or the console is closed
func (r *RemoteConsole) ReadKey() (rune, error) {
	select {
	case k := <-r.keys:
		return k, nil
	case <-r.done:
		return 0, io.EOF
	}
}

// Prompt forwards prompt to clients and waits for a line
func (r *RemoteConsole) Prompt(prompt string) (string, error) {
	r.emit(ServerMessage{Type: MsgPrompt, Text: prompt})
	select {
	case line := <-r.lines:
		return line, nil
	case <-r.done:
		return "", io.EOF
	}
}

// Write forwards dispatcher output to clients. Output is dropped when no
// client keeps up.
func (r *RemoteConsole) Write(p []byte) (int, error) {
	r.emit(ServerMessage{Type: MsgOutput, Text: string(p)})
	return len(p), nil
}

func (r *RemoteConsole) emit(msg ServerMessage) {
	select {
	case r.outbound <- msg:
	default:
	}
}

// Outbound is drained by the websocket writer
func (r *RemoteConsole) Outbound() <-chan ServerMessage {
	return r.outbound
}

// Push delivers a client message
func (r *RemoteConsole) Push(msg ClientMessage) error {
	switch msg.Type {
	case MsgKey:
		if utf8.RuneCountInString(msg.Key) != 1 {
			return ErrBadKey
		}
		k, _ := utf8.DecodeRuneInString(msg.Key)
		select {
		case r.keys <- k:
		case <-r.done:
			return io.EOF
		}
	case MsgLine:
		select {
		case r.lines <- msg.Line:
		case <-r.done:
			return io.EOF
		}
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
	return nil
}

// Close unblocks any pending ReadKey or Prompt
func (r *RemoteConsole) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}

// Done is closed with the console
func (r *RemoteConsole) Done() <-chan struct{} {
	return r.done
}
