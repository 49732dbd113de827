// Package zeromq publishes command payloads on a ZeroMQ PUB socket.
// Each message is two frames: the channel name, then the payload, so
// subscribers can filter by channel prefix.
package zeromq

import (
	"errors"
	"fmt"
	"sync"

	customlog "github.com/open-teleop/auvnav/pkg/log"
	"github.com/pebbe/zmq4"
)

// ErrServiceClosed is returned when publishing after Close
var ErrServiceClosed = errors.New("zeromq publisher is closed")

// Publisher owns a ZeroMQ context and its PUB socket
type Publisher struct {
	ctx     *zmq4.Context
	socket  *zmq4.Socket
	address string
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// NewPublisher creates a PUB socket bound to address
func NewPublisher(address string, logger customlog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = customlog.Discard()
	}

	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		ctx.Term()
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	// Drop pending messages on close instead of blocking shutdown
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		ctx.Term()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		ctx.Term()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	logger.Infof("ZeroMQ publisher bound on %s", address)

	return &Publisher{
		ctx:     ctx,
		socket:  socket,
		address: address,
		logger:  logger,
		running: true,
	}, nil
}

// Address returns the bind address
func (p *Publisher) Address() string {
	return p.address
}

// PublishMessage sends payload under topic
func (p *Publisher) PublishMessage(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrServiceClosed
	}

	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(payload, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close releases the socket and context. Safe to call twice.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false

	var errs []error
	if p.socket != nil {
		errs = append(errs, p.socket.Close())
		p.socket = nil
	}
	if p.ctx != nil {
		errs = append(errs, p.ctx.Term())
		p.ctx = nil
	}
	p.logger.Infof("ZeroMQ publisher on %s closed", p.address)
	return errors.Join(errs...)
}
