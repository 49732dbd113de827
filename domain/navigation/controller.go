// Package navigation holds the command state of the three AUV axes and
// publishes it, gated by the killswitch interlock.
package navigation

import (
	"sync"

	customlog "github.com/open-teleop/auvnav/pkg/log"
)

// Publisher broadcasts a command record on a named channel.
// Delivery is best effort; the controller never waits for an ack.
type Publisher interface {
	Publish(channel string, record interface{}) error
}

// Channels names the channel of each axis
type Channels struct {
	Height   string
	Rotation string
	Movement string
}

// DefaultChannels returns the standard channel names
func DefaultChannels() Channels {
	return Channels{
		Height:   "height_control",
		Rotation: "rotation_control",
		Movement: "movement_control",
	}
}

// Controller owns the three axis commands and the killswitch interlock.
// Calls are serialized by a mutex held across the publish pause, so the
// dispatch loop and the killswitch endpoint can share one controller.
type Controller struct {
	publisher Publisher
	limiter   RateLimiter
	channels  Channels
	logger    customlog.Logger

	mu         sync.Mutex
	killswitch bool
	halted     bool
	height     HeightCommand
	rotation   RotationCommand
	movement   MovementCommand
}

// Option customizes a Controller
type Option func(*Controller)

// WithRateLimiter replaces the default 100ms post-publish pause
func WithRateLimiter(l RateLimiter) Option {
	return func(c *Controller) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithChannels overrides the channel names. Empty names keep the default.
func WithChannels(ch Channels) Option {
	return func(c *Controller) {
		if ch.Height != "" {
			c.channels.Height = ch.Height
		}
		if ch.Rotation != "" {
			c.channels.Rotation = ch.Rotation
		}
		if ch.Movement != "" {
			c.channels.Movement = ch.Movement
		}
	}
}

// NewController creates a disarmed controller with every axis neutral
func NewController(publisher Publisher, logger customlog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = customlog.Discard()
	}
	c := &Controller{
		publisher: publisher,
		limiter:   NewFixedPause(DefaultPublishInterval),
		channels:  DefaultChannels(),
		logger:    logger,
		height:    HeightCommand{State: HeightStaying},
		rotation:  RotationCommand{State: RotationStaying},
		movement:  MovementCommand{State: MovementOff, Direction: DirectionNone},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start engages the interlock; publishing becomes active.
// It has no effect after Halt.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.halted {
		c.logger.Warnf("Ignoring killswitch engage after halt")
		return
	}
	c.killswitch = true
	c.logger.Infof("Killswitch engaged, navigation active")
}

// Stop disengages the interlock; every *Nav call becomes a no-op
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killswitch = false
	c.logger.Infof("Killswitch released, navigation suppressed")
}

// Halt publishes a final hold-position command on every axis when armed,
// then releases the interlock for good. Later Start calls are ignored, so
// nothing can be published after the final stop.
func (c *Controller) Halt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.halted {
		return
	}
	if c.killswitch {
		c.height = HeightCommand{State: HeightStaying}
		c.publishLocked(AxisHeight, c.channels.Height, c.height)
		c.rotation = RotationCommand{State: RotationStaying}
		c.publishLocked(AxisRotation, c.channels.Rotation, c.rotation)
		c.movement = NewMovementCommand(MovementPower, DirectionNone, 0)
		c.publishLocked(AxisMovement, c.channels.Movement, c.movement)
	}
	c.killswitch = false
	c.halted = true
	c.logger.Infof("Navigation halted")
}

// Armed reports whether the interlock is engaged
func (c *Controller) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.killswitch
}

// Halted reports whether Halt has been called
func (c *Controller) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// Channels returns the channel names in use
func (c *Controller) Channels() Channels {
	return c.channels
}

// Height returns a copy of the current height command
func (c *Controller) Height() HeightCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Rotation returns a copy of the current rotation command
func (c *Controller) Rotation() RotationCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation
}

// Movement returns a copy of the current movement command
func (c *Controller) Movement() MovementCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.movement
}

// --- Setters ---

// SetHeight resolves name and stores the height command
func (c *Controller) SetHeight(name string, depth float64) error {
	state, err := ParseHeightState(name)
	if err != nil {
		return err
	}
	c.SetHeightCode(state, depth)
	return nil
}

// SetHeightCode stores a raw height code without table lookup
func (c *Controller) SetHeightCode(state HeightState, depth float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = HeightCommand{State: state, Depth: depth}
}

// SetRotation resolves name and stores the rotation command
func (c *Controller) SetRotation(name string, rotation float64) error {
	state, err := ParseRotationState(name)
	if err != nil {
		return err
	}
	c.SetRotationCode(state, rotation)
	return nil
}

// SetRotationCode stores a raw rotation code without table lookup
func (c *Controller) SetRotationCode(state RotationState, rotation float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = RotationCommand{State: state, Rotation: rotation}
}

// SetMovement resolves both names and stores the movement command.
// value lands in Power, Distance or RunningTime depending on the state.
func (c *Controller) SetMovement(stateName, directionName string, value float64) error {
	state, direction, err := parseMovement(stateName, directionName)
	if err != nil {
		return err
	}
	c.SetMovementCode(state, direction, value)
	return nil
}

// SetMovementCode stores raw movement codes without table lookup
func (c *Controller) SetMovementCode(state MovementState, direction Direction, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movement = NewMovementCommand(state, direction, value)
}

func parseMovement(stateName, directionName string) (MovementState, Direction, error) {
	state, err := ParseMovementState(stateName)
	if err != nil {
		return 0, 0, err
	}
	direction, err := ParseDirection(directionName)
	if err != nil {
		return 0, 0, err
	}
	return state, direction, nil
}

// --- Navigate calls ---

// HeightNav sets and publishes the height command when armed
func (c *Controller) HeightNav(name string, depth float64) error {
	if !c.Armed() {
		return nil
	}
	state, err := ParseHeightState(name)
	if err != nil {
		return err
	}
	c.HeightNavCode(state, depth)
	return nil
}

// HeightNavCode is HeightNav with a raw code
func (c *Controller) HeightNavCode(state HeightState, depth float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.killswitch {
		return
	}
	c.height = HeightCommand{State: state, Depth: depth}
	c.publishLocked(AxisHeight, c.channels.Height, c.height)
}

// RotationNav sets and publishes the rotation command when armed
func (c *Controller) RotationNav(name string, rotation float64) error {
	if !c.Armed() {
		return nil
	}
	state, err := ParseRotationState(name)
	if err != nil {
		return err
	}
	c.RotationNavCode(state, rotation)
	return nil
}

// RotationNavCode is RotationNav with a raw code
func (c *Controller) RotationNavCode(state RotationState, rotation float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.killswitch {
		return
	}
	c.rotation = RotationCommand{State: state, Rotation: rotation}
	c.publishLocked(AxisRotation, c.channels.Rotation, c.rotation)
}

// MovementNav sets and publishes the movement command when armed
func (c *Controller) MovementNav(stateName, directionName string, value float64) error {
	if !c.Armed() {
		return nil
	}
	state, direction, err := parseMovement(stateName, directionName)
	if err != nil {
		return err
	}
	c.MovementNavCode(state, direction, value)
	return nil
}

// MovementNavCode is MovementNav with raw codes
func (c *Controller) MovementNavCode(state MovementState, direction Direction, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.killswitch {
		return
	}
	c.movement = NewMovementCommand(state, direction, value)
	c.publishLocked(AxisMovement, c.channels.Movement, c.movement)
}

// PublishHeight republishes the current height command when armed
func (c *Controller) PublishHeight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.killswitch {
		return
	}
	c.publishLocked(AxisHeight, c.channels.Height, c.height)
}

// PublishRotation republishes the current rotation command when armed
func (c *Controller) PublishRotation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.killswitch {
		return
	}
	c.publishLocked(AxisRotation, c.channels.Rotation, c.rotation)
}

// PublishMovement republishes the current movement command when armed
func (c *Controller) PublishMovement() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.killswitch {
		return
	}
	c.publishLocked(AxisMovement, c.channels.Movement, c.movement)
}

// publishLocked must be called with c.mu held
func (c *Controller) publishLocked(axis Axis, channel string, record interface{}) {
	c.limiter.Wait(channel)
	if c.publisher != nil {
		if err := c.publisher.Publish(channel, record); err != nil {
			c.logger.WithField("channel", channel).Warnf("Failed to publish %s command: %v", axis, err)
		}
	}
	c.limiter.Done(channel)

	c.logger.Infof("%v", record)
}
