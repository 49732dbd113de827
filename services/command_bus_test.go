package services

import (
	"errors"
	"testing"

	"github.com/open-teleop/auvnav/domain/navigation"
	"github.com/open-teleop/auvnav/pkg/codec"
)

type memorySink struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (s *memorySink) PublishMessage(topic string, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	s.topics = append(s.topics, topic)
	s.payloads = append(s.payloads, payload)
	return nil
}

func TestCommandBusPublishes(t *testing.T) {
	sink := &memorySink{}
	bus, err := NewCommandBus(&codec.FlatbuffersEncoder{}, sink, nil)
	if err != nil {
		t.Fatalf("NewCommandBus failed: %v", err)
	}

	record := navigation.HeightCommand{State: navigation.HeightDown, Depth: 2}
	if err := bus.Publish("height_control", record); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(sink.topics) != 1 || sink.topics[0] != "height_control" {
		t.Fatalf("Unexpected topics %v", sink.topics)
	}
	decoded, err := codec.DecodeHeight(sink.payloads[0])
	if err != nil || decoded != record {
		t.Errorf("Expected %+v on the wire, got %+v (%v)", record, decoded, err)
	}

	st, ok := bus.Last("height_control")
	if !ok {
		t.Fatalf("Expected status for height_control")
	}
	if st.Published != 1 || st.Type != codec.MsgTypeHeightCommand || st.Record != record {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestCommandBusRecordsFailures(t *testing.T) {
	sink := &memorySink{err: errors.New("broker down")}
	bus, _ := NewCommandBus(codec.NewJSONEncoder(""), sink, nil)

	err := bus.Publish("movement_control", navigation.MovementCommand{})
	if err == nil {
		t.Fatalf("Expected publish error")
	}

	st, _ := bus.Last("movement_control")
	if st.Failed != 1 || st.Published != 0 || st.LastError != "broker down" {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestCommandBusRejectsUnknownRecord(t *testing.T) {
	bus, _ := NewCommandBus(codec.NewJSONEncoder(""), &memorySink{}, nil)
	if err := bus.Publish("height_control", 42); !errors.Is(err, codec.ErrUnsupportedRecord) {
		t.Errorf("Expected ErrUnsupportedRecord, got %v", err)
	}
}

func TestCommandBusSnapshotSorted(t *testing.T) {
	bus, _ := NewCommandBus(codec.NewJSONEncoder(""), &memorySink{}, nil)
	_ = bus.Publish("rotation_control", navigation.RotationCommand{})
	_ = bus.Publish("height_control", navigation.HeightCommand{})
	_ = bus.Publish("movement_control", navigation.MovementCommand{})

	snap := bus.Snapshot()
	want := []string{"height_control", "movement_control", "rotation_control"}
	if len(snap) != len(want) {
		t.Fatalf("Expected %d channels, got %d", len(want), len(snap))
	}
	for i, ch := range want {
		if snap[i].Channel != ch {
			t.Errorf("Snapshot %d: expected %s, got %s", i, ch, snap[i].Channel)
		}
	}
}

func TestCommandBusWithController(t *testing.T) {
	sink := &memorySink{}
	bus, _ := NewCommandBus(codec.NewJSONEncoder("s"), sink, nil)
	nav := navigation.NewController(bus, nil, navigation.WithRateLimiter(navigation.NoPacing{}))
	nav.Start()

	if err := nav.MovementNav("power", "forward", 40); err != nil {
		t.Fatalf("MovementNav failed: %v", err)
	}

	var got navigation.MovementCommand
	env, err := codec.DecodeEnvelope(sink.payloads[0], &got)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Channel != "movement_control" || got.Power != 40 || got.Direction != navigation.DirectionForward {
		t.Errorf("Unexpected published command %+v in %+v", got, env)
	}
}

func TestNewCommandBusValidation(t *testing.T) {
	if _, err := NewCommandBus(nil, &memorySink{}, nil); err == nil {
		t.Errorf("Expected error for nil encoder")
	}
	if _, err := NewCommandBus(codec.NewJSONEncoder(""), nil, nil); err == nil {
		t.Errorf("Expected error for nil sink")
	}
}
