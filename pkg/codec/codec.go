// Package codec turns navigation command records into wire payloads.
package codec

import (
	"errors"
	"fmt"

	"github.com/open-teleop/auvnav/domain/navigation"
	"github.com/open-teleop/auvnav/pkg/config"
)

// ErrUnsupportedRecord is returned for values that are not command records
var ErrUnsupportedRecord = errors.New("unsupported command record")

// Message types carried in the envelope
const (
	MsgTypeHeightCommand   = "HEIGHT_COMMAND"
	MsgTypeRotationCommand = "ROTATION_COMMAND"
	MsgTypeMovementCommand = "MOVEMENT_COMMAND"
)

// Encoder serializes a record published on a channel
type Encoder interface {
	Encode(channel string, record interface{}) ([]byte, error)
	Name() string
}

// New returns the encoder for a configured encoding name
func New(encoding string, session string) (Encoder, error) {
	switch encoding {
	case config.EncodingJSON, "":
		return NewJSONEncoder(session), nil
	case config.EncodingFlatbuffers:
		return &FlatbuffersEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding: %s", encoding)
	}
}

// MessageType names the record type
func MessageType(record interface{}) (string, error) {
	switch record.(type) {
	case navigation.HeightCommand, *navigation.HeightCommand:
		return MsgTypeHeightCommand, nil
	case navigation.RotationCommand, *navigation.RotationCommand:
		return MsgTypeRotationCommand, nil
	case navigation.MovementCommand, *navigation.MovementCommand:
		return MsgTypeMovementCommand, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedRecord, record)
	}
}
