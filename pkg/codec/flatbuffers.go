package codec

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/auvnav/domain/navigation"
)

// Table layouts, one table per channel:
//
//	table HeightCommand   { state:byte; depth:double; }
//	table RotationCommand { state:byte; rotation:double; }
//	table MovementCommand { state:byte; direction:byte; power:double; distance:double; running_time:double; }
const (
	heightFieldCount   = 2
	rotationFieldCount = 2
	movementFieldCount = 5
)

// FlatbuffersEncoder encodes records as FlatBuffers tables
type FlatbuffersEncoder struct{}

func (e *FlatbuffersEncoder) Name() string { return "flatbuffers" }

// Encode implements Encoder
func (e *FlatbuffersEncoder) Encode(channel string, record interface{}) ([]byte, error) {
	builder := flatbuffers.NewBuilder(64)

	switch r := record.(type) {
	case navigation.HeightCommand:
		buildHeight(builder, r)
	case *navigation.HeightCommand:
		buildHeight(builder, *r)
	case navigation.RotationCommand:
		buildRotation(builder, r)
	case *navigation.RotationCommand:
		buildRotation(builder, *r)
	case navigation.MovementCommand:
		buildMovement(builder, r)
	case *navigation.MovementCommand:
		buildMovement(builder, *r)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedRecord, record)
	}

	return builder.FinishedBytes(), nil
}

func buildHeight(b *flatbuffers.Builder, c navigation.HeightCommand) {
	b.StartObject(heightFieldCount)
	b.PrependFloat64Slot(1, c.Depth, 0)
	b.PrependInt8Slot(0, int8(c.State), 0)
	b.Finish(b.EndObject())
}

func buildRotation(b *flatbuffers.Builder, c navigation.RotationCommand) {
	b.StartObject(rotationFieldCount)
	b.PrependFloat64Slot(1, c.Rotation, 0)
	b.PrependInt8Slot(0, int8(c.State), 0)
	b.Finish(b.EndObject())
}

func buildMovement(b *flatbuffers.Builder, c navigation.MovementCommand) {
	b.StartObject(movementFieldCount)
	b.PrependFloat64Slot(4, c.RunningTime, 0)
	b.PrependFloat64Slot(3, c.Distance, 0)
	b.PrependFloat64Slot(2, c.Power, 0)
	b.PrependInt8Slot(1, int8(c.Direction), 0)
	b.PrependInt8Slot(0, int8(c.State), 0)
	b.Finish(b.EndObject())
}

// fbTable reads fields from a finished root table
type fbTable struct {
	tab flatbuffers.Table
}

func rootTable(buf []byte) (*fbTable, error) {
	if len(buf) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("flatbuffer too short: %d bytes", len(buf))
	}
	n := flatbuffers.GetUOffsetT(buf)
	return &fbTable{tab: flatbuffers.Table{Bytes: buf, Pos: n}}, nil
}

// slot i lives at vtable offset 4 + 2*i
func (t *fbTable) int8At(slot int) int8 {
	o := flatbuffers.UOffsetT(t.tab.Offset(flatbuffers.VOffsetT(4 + 2*slot)))
	if o != 0 {
		return t.tab.GetInt8(o + t.tab.Pos)
	}
	return 0
}

func (t *fbTable) float64At(slot int) float64 {
	o := flatbuffers.UOffsetT(t.tab.Offset(flatbuffers.VOffsetT(4 + 2*slot)))
	if o != 0 {
		return t.tab.GetFloat64(o + t.tab.Pos)
	}
	return 0
}

// DecodeHeight reads a HeightCommand table
func DecodeHeight(buf []byte) (navigation.HeightCommand, error) {
	t, err := rootTable(buf)
	if err != nil {
		return navigation.HeightCommand{}, err
	}
	return navigation.HeightCommand{
		State: navigation.HeightState(t.int8At(0)),
		Depth: t.float64At(1),
	}, nil
}

// DecodeRotation reads a RotationCommand table
func DecodeRotation(buf []byte) (navigation.RotationCommand, error) {
	t, err := rootTable(buf)
	if err != nil {
		return navigation.RotationCommand{}, err
	}
	return navigation.RotationCommand{
		State:    navigation.RotationState(t.int8At(0)),
		Rotation: t.float64At(1),
	}, nil
}

// DecodeMovement reads a MovementCommand table
func DecodeMovement(buf []byte) (navigation.MovementCommand, error) {
	t, err := rootTable(buf)
	if err != nil {
		return navigation.MovementCommand{}, err
	}
	return navigation.MovementCommand{
		State:       navigation.MovementState(t.int8At(0)),
		Direction:   navigation.Direction(t.int8At(1)),
		Power:       t.float64At(2),
		Distance:    t.float64At(3),
		RunningTime: t.float64At(4),
	}, nil
}
