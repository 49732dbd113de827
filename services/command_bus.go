package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/open-teleop/auvnav/pkg/codec"
	customlog "github.com/open-teleop/auvnav/pkg/log"
)

// Sink delivers an encoded payload on a topic.
// Implemented by zeromq.Publisher and messaging.Client.
type Sink interface {
	PublishMessage(topic string, payload []byte) error
}

// ChannelStatus is the last command seen on one channel
type ChannelStatus struct {
	Channel     string      `json:"channel"`
	Type        string      `json:"type"`
	Record      interface{} `json:"record"`
	PublishedAt time.Time   `json:"published_at"`
	Published   uint64      `json:"published"`
	Failed      uint64      `json:"failed"`
	LastError   string      `json:"last_error,omitempty"`
}

// CommandBus implements navigation.Publisher on top of an Encoder and a Sink.
// The navigation loop publishes from one goroutine while the status API
// reads snapshots from another, hence the mutex.
type CommandBus struct {
	encoder codec.Encoder
	sink    Sink
	logger  customlog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	channels map[string]*ChannelStatus
}

// NewCommandBus creates a bus publishing through sink
func NewCommandBus(encoder codec.Encoder, sink Sink, logger customlog.Logger) (*CommandBus, error) {
	if encoder == nil {
		return nil, fmt.Errorf("command bus encoder cannot be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("command bus sink cannot be nil")
	}
	if logger == nil {
		logger = customlog.Discard()
	}
	return &CommandBus{
		encoder:  encoder,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
		channels: make(map[string]*ChannelStatus),
	}, nil
}

// Publish encodes record and hands it to the sink
func (b *CommandBus) Publish(channel string, record interface{}) error {
	msgType, err := codec.MessageType(record)
	if err != nil {
		return err
	}

	payload, err := b.encoder.Encode(channel, record)
	if err != nil {
		b.markFailed(channel, msgType, err)
		return fmt.Errorf("failed to encode %s for %s: %w", msgType, channel, err)
	}

	if err := b.sink.PublishMessage(channel, payload); err != nil {
		b.markFailed(channel, msgType, err)
		return fmt.Errorf("failed to publish %s on %s: %w", msgType, channel, err)
	}

	b.mu.Lock()
	st := b.statusLocked(channel, msgType)
	st.Record = record
	st.PublishedAt = b.now()
	st.Published++
	st.LastError = ""
	b.mu.Unlock()

	b.logger.Debugf("Published %s on %s (%d bytes, %s)", msgType, channel, len(payload), b.encoder.Name())
	return nil
}

func (b *CommandBus) markFailed(channel, msgType string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.statusLocked(channel, msgType)
	st.Failed++
	st.LastError = err.Error()
}

func (b *CommandBus) statusLocked(channel, msgType string) *ChannelStatus {
	st, ok := b.channels[channel]
	if !ok {
		st = &ChannelStatus{Channel: channel}
		b.channels[channel] = st
	}
	st.Type = msgType
	return st
}

// Snapshot returns a copy of every channel status, sorted by channel
func (b *CommandBus) Snapshot() []ChannelStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]ChannelStatus, 0, len(b.channels))
	for _, st := range b.channels {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Channel < result[j].Channel })
	return result
}

// Last returns the status of one channel
func (b *CommandBus) Last(channel string) (ChannelStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.channels[channel]
	if !ok {
		return ChannelStatus{}, false
	}
	return *st, true
}
