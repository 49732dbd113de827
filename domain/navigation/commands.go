package navigation

import "fmt"

// ContinuousMode as depth or rotation means move without a fixed endpoint
const ContinuousMode = -1.0

// HeightCommand is the record published on the height channel
type HeightCommand struct {
	State HeightState `json:"state"`
	Depth float64     `json:"depth"`
}

// RotationCommand is the record published on the rotation channel
type RotationCommand struct {
	State    RotationState `json:"state"`
	Rotation float64       `json:"rotation"`
}

// MovementCommand is the record published on the movement channel.
// At most one of Power, Distance and RunningTime is nonzero.
type MovementCommand struct {
	State       MovementState `json:"state"`
	Direction   Direction     `json:"direction"`
	Power       float64       `json:"power"`
	Distance    float64       `json:"distance"`
	RunningTime float64       `json:"running_time"`
}

func (c HeightCommand) String() string {
	return fmt.Sprintf("state: %d depth: %.2f", c.State, c.Depth)
}

func (c RotationCommand) String() string {
	return fmt.Sprintf("state: %d rotation: %.2f", c.State, c.Rotation)
}

func (c MovementCommand) String() string {
	return fmt.Sprintf("state: %d direction: %d power: %.2f distance: %.2f runningTime: %.2f",
		c.State, c.Direction, c.Power, c.Distance, c.RunningTime)
}

// NewMovementCommand routes value into the field selected by state and zeroes the rest
func NewMovementCommand(state MovementState, direction Direction, value float64) MovementCommand {
	cmd := MovementCommand{State: state, Direction: direction}
	switch state {
	case MovementPower:
		cmd.Power = value
	case MovementDistance:
		cmd.Distance = value
	case MovementMotorTime:
		cmd.RunningTime = value
	}
	return cmd
}
