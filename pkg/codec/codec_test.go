package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/open-teleop/auvnav/domain/navigation"
)

func TestJSONEnvelope(t *testing.T) {
	enc := &JSONEncoder{
		Session: "session-1",
		Now:     func() time.Time { return time.Unix(1700000000, 500000000) },
	}
	record := navigation.NewMovementCommand(navigation.MovementPower, navigation.DirectionForward, 40)

	payload, err := enc.Encode("movement_control", record)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded navigation.MovementCommand
	env, err := DecodeEnvelope(payload, &decoded)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}

	if env.Type != MsgTypeMovementCommand {
		t.Errorf("Expected type %s, got %s", MsgTypeMovementCommand, env.Type)
	}
	if env.Channel != "movement_control" || env.Session != "session-1" {
		t.Errorf("Unexpected envelope routing %+v", env)
	}
	if env.Timestamp != 1700000000.5 {
		t.Errorf("Expected timestamp 1700000000.5, got %v", env.Timestamp)
	}
	if _, err := uuid.Parse(env.ID); err != nil {
		t.Errorf("Expected uuid message id, got %q", env.ID)
	}
	if decoded != record {
		t.Errorf("Expected %+v, got %+v", record, decoded)
	}
}

func TestJSONEnvelopeIDsAreUnique(t *testing.T) {
	enc := NewJSONEncoder("")
	a, _ := enc.Encode("height_control", navigation.HeightCommand{})
	b, _ := enc.Encode("height_control", navigation.HeightCommand{})

	envA, _ := DecodeEnvelope(a, nil)
	envB, _ := DecodeEnvelope(b, nil)
	if envA.ID == envB.ID {
		t.Errorf("Expected distinct ids, both %s", envA.ID)
	}
}

func TestFlatbuffersRoundTrip(t *testing.T) {
	enc := &FlatbuffersEncoder{}

	height := navigation.HeightCommand{State: navigation.HeightUp, Depth: navigation.ContinuousMode}
	buf, err := enc.Encode("height_control", height)
	if err != nil {
		t.Fatalf("Encode height failed: %v", err)
	}
	gotHeight, err := DecodeHeight(buf)
	if err != nil || gotHeight != height {
		t.Errorf("Height: expected %+v, got %+v (%v)", height, gotHeight, err)
	}

	rotation := navigation.RotationCommand{State: navigation.RotationKeepRotateToTarget, Rotation: 123.25}
	buf, err = enc.Encode("rotation_control", &rotation)
	if err != nil {
		t.Fatalf("Encode rotation failed: %v", err)
	}
	gotRotation, err := DecodeRotation(buf)
	if err != nil || gotRotation != rotation {
		t.Errorf("Rotation: expected %+v, got %+v (%v)", rotation, gotRotation, err)
	}

	movement := navigation.NewMovementCommand(navigation.MovementMotorTime, navigation.DirectionLeft, 4.5)
	buf, err = enc.Encode("movement_control", movement)
	if err != nil {
		t.Fatalf("Encode movement failed: %v", err)
	}
	gotMovement, err := DecodeMovement(buf)
	if err != nil || gotMovement != movement {
		t.Errorf("Movement: expected %+v, got %+v (%v)", movement, gotMovement, err)
	}
}

func TestFlatbuffersZeroRecord(t *testing.T) {
	enc := &FlatbuffersEncoder{}
	buf, err := enc.Encode("movement_control", navigation.MovementCommand{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeMovement(buf)
	if err != nil || got != (navigation.MovementCommand{}) {
		t.Errorf("Expected zero record, got %+v (%v)", got, err)
	}
}

func TestUnsupportedRecord(t *testing.T) {
	for _, enc := range []Encoder{NewJSONEncoder(""), &FlatbuffersEncoder{}} {
		_, err := enc.Encode("height_control", "not a record")
		if !errors.Is(err, ErrUnsupportedRecord) {
			t.Errorf("%s: expected ErrUnsupportedRecord, got %v", enc.Name(), err)
		}
	}
}

func TestNew(t *testing.T) {
	if enc, err := New("json", "s"); err != nil || enc.Name() != "json" {
		t.Errorf("Expected json encoder, got %v, %v", enc, err)
	}
	if enc, err := New("flatbuffers", ""); err != nil || enc.Name() != "flatbuffers" {
		t.Errorf("Expected flatbuffers encoder, got %v, %v", enc, err)
	}
	if _, err := New("protobuf", ""); err == nil {
		t.Errorf("Expected error for unknown encoding")
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	if _, err := DecodeHeight([]byte{1}); err == nil {
		t.Errorf("Expected error for short buffer")
	}
}
