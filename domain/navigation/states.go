package navigation

import "strconv"

// Axis identifies one of the three command channels
type Axis string

const (
	AxisHeight    Axis = "height"
	AxisRotation  Axis = "rotation"
	AxisMovement  Axis = "movement"
	AxisDirection Axis = "direction"
)

// HeightState is the vertical command state
type HeightState int8

const (
	HeightDown    HeightState = 0
	HeightStaying HeightState = 1
	HeightUp      HeightState = 2
)

// RotationState is the yaw command state
type RotationState int8

const (
	RotationLeft               RotationState = 0
	RotationStaying            RotationState = 1
	RotationRight              RotationState = 2
	RotationToTarget           RotationState = 3
	RotationKeepRotateToTarget RotationState = 4
)

// MovementState selects which magnitude field of a movement command is live
type MovementState int8

const (
	MovementOff            MovementState = 0
	MovementPower          MovementState = 1
	MovementDistance       MovementState = 2
	MovementFrontCamCenter MovementState = 3
	MovementBotCamCenter   MovementState = 4
	MovementMotorTime      MovementState = 5
)

// Direction is the translational heading of a movement command
type Direction int8

const (
	DirectionNone     Direction = 0
	DirectionForward  Direction = 1
	DirectionRight    Direction = 2
	DirectionBackward Direction = 3
	DirectionLeft     Direction = 4
)

var heightStates = map[string]HeightState{
	"down":    HeightDown,
	"staying": HeightStaying,
	"up":      HeightUp,
}

var rotationStates = map[string]RotationState{
	"left":                  RotationLeft,
	"staying":               RotationStaying,
	"right":                 RotationRight,
	"rotate_to_target":      RotationToTarget,
	"keep_rotate_to_target": RotationKeepRotateToTarget,
	// front camera distance names used by older mission scripts
	"rotate_front_cam_dist":      RotationToTarget,
	"keep_rotate_front_cam_dist": RotationKeepRotateToTarget,
}

var movementStates = map[string]MovementState{
	"off":              MovementOff,
	"power":            MovementPower,
	"distance":         MovementDistance,
	"front_cam_center": MovementFrontCamCenter,
	"bot_cam_center":   MovementBotCamCenter,
	"motor_time":       MovementMotorTime,
}

var directions = map[string]Direction{
	"none":     DirectionNone,
	"forward":  DirectionForward,
	"right":    DirectionRight,
	"backward": DirectionBackward,
	"left":     DirectionLeft,
}

// ParseHeightState resolves a symbolic height state
func ParseHeightState(name string) (HeightState, error) {
	s, ok := heightStates[name]
	if !ok {
		return 0, &InvalidStateError{Axis: AxisHeight, Name: name}
	}
	return s, nil
}

// ParseRotationState resolves a symbolic rotation state
func ParseRotationState(name string) (RotationState, error) {
	s, ok := rotationStates[name]
	if !ok {
		return 0, &InvalidStateError{Axis: AxisRotation, Name: name}
	}
	return s, nil
}

// ParseMovementState resolves a symbolic movement state
func ParseMovementState(name string) (MovementState, error) {
	s, ok := movementStates[name]
	if !ok {
		return 0, &InvalidStateError{Axis: AxisMovement, Name: name}
	}
	return s, nil
}

// ParseDirection resolves a symbolic movement direction
func ParseDirection(name string) (Direction, error) {
	d, ok := directions[name]
	if !ok {
		return 0, &InvalidStateError{Axis: AxisDirection, Name: name}
	}
	return d, nil
}

// HeightStateNames returns the canonical height names in code order
func HeightStateNames() []string {
	return []string{"down", "staying", "up"}
}

// RotationStateNames returns the canonical rotation names in code order
func RotationStateNames() []string {
	return []string{"left", "staying", "right", "rotate_to_target", "keep_rotate_to_target"}
}

// MovementStateNames returns the canonical movement names in code order
func MovementStateNames() []string {
	return []string{"off", "power", "distance", "front_cam_center", "bot_cam_center", "motor_time"}
}

// DirectionNames returns the canonical direction names in code order
func DirectionNames() []string {
	return []string{"none", "forward", "right", "backward", "left"}
}

func (s HeightState) String() string {
	return nameOf(HeightStateNames(), int(s))
}

func (s RotationState) String() string {
	return nameOf(RotationStateNames(), int(s))
}

func (s MovementState) String() string {
	return nameOf(MovementStateNames(), int(s))
}

func (d Direction) String() string {
	return nameOf(DirectionNames(), int(d))
}

// nameOf falls back to the decimal code for raw codes outside the table
func nameOf(names []string, code int) string {
	if code >= 0 && code < len(names) {
		return names[code]
	}
	return strconv.Itoa(code)
}
