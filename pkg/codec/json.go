package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps every JSON command so subscribers can route and dedupe
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Session   string          `json:"session,omitempty"`
	Channel   string          `json:"channel"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// JSONEncoder encodes records as JSON envelopes
type JSONEncoder struct {
	Session string
	Now     func() time.Time
}

// NewJSONEncoder creates an encoder stamping envelopes with session
func NewJSONEncoder(session string) *JSONEncoder {
	return &JSONEncoder{Session: session, Now: time.Now}
}

func (e *JSONEncoder) Name() string { return "json" }

// Encode implements Encoder
func (e *JSONEncoder) Encode(channel string, record interface{}) ([]byte, error) {
	msgType, err := MessageType(record)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ts := now()
	env := Envelope{
		Type:      msgType,
		ID:        uuid.New().String(),
		Session:   e.Session,
		Channel:   channel,
		Timestamp: float64(ts.Unix()) + float64(ts.Nanosecond())/1e9,
		Data:      data,
	}

	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return out, nil
}

// DecodeEnvelope parses an envelope and unmarshals its data into target
func DecodeEnvelope(payload []byte, target interface{}) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if target != nil {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return &env, fmt.Errorf("failed to parse %s data: %w", env.Type, err)
		}
	}
	return &env, nil
}
