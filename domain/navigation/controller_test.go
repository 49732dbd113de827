package navigation

import (
	"errors"
	"sync"
	"testing"
)

type published struct {
	channel string
	record  interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (p *recordingPublisher) Publish(channel string, record interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{channel: channel, record: record})
	return p.err
}

func newTestController() (*Controller, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewController(pub, nil, WithRateLimiter(NoPacing{})), pub
}

func TestNewControllerIsDisarmedAndNeutral(t *testing.T) {
	c, _ := newTestController()

	if c.Armed() {
		t.Errorf("Expected controller to start disarmed")
	}
	if c.Height() != (HeightCommand{State: HeightStaying}) {
		t.Errorf("Unexpected initial height %+v", c.Height())
	}
	if c.Rotation() != (RotationCommand{State: RotationStaying}) {
		t.Errorf("Unexpected initial rotation %+v", c.Rotation())
	}
	if c.Movement() != (MovementCommand{}) {
		t.Errorf("Unexpected initial movement %+v", c.Movement())
	}
}

func TestNavIsNoOpWhenDisarmed(t *testing.T) {
	c, pub := newTestController()

	if err := c.HeightNav("up", 3); err != nil {
		t.Fatalf("HeightNav returned error: %v", err)
	}
	if err := c.RotationNav("left", 90); err != nil {
		t.Fatalf("RotationNav returned error: %v", err)
	}
	if err := c.MovementNav("power", "forward", 40); err != nil {
		t.Fatalf("MovementNav returned error: %v", err)
	}
	c.HeightNavCode(HeightUp, 1)
	c.RotationNavCode(RotationRight, 1)
	c.MovementNavCode(MovementPower, DirectionLeft, 1)
	c.PublishHeight()
	c.PublishRotation()
	c.PublishMovement()

	if len(pub.messages) != 0 {
		t.Errorf("Expected no publishes while disarmed, got %d", len(pub.messages))
	}
	if c.Height().State != HeightStaying || c.Rotation().State != RotationStaying || c.Movement().State != MovementOff {
		t.Errorf("State mutated while disarmed: %+v %+v %+v", c.Height(), c.Rotation(), c.Movement())
	}
}

func TestNavIsNoOpForUnknownNameWhenDisarmed(t *testing.T) {
	c, _ := newTestController()
	if err := c.HeightNav("sideways", 0); err != nil {
		t.Errorf("Expected disarmed nav to ignore input, got %v", err)
	}
}

func TestNavPublishesOnAxisChannel(t *testing.T) {
	c, pub := newTestController()
	c.Start()

	if err := c.HeightNav("up", ContinuousMode); err != nil {
		t.Fatalf("HeightNav failed: %v", err)
	}
	if err := c.RotationNav("right", 36); err != nil {
		t.Fatalf("RotationNav failed: %v", err)
	}
	if err := c.MovementNav("distance", "backward", 2.5); err != nil {
		t.Fatalf("MovementNav failed: %v", err)
	}

	want := []published{
		{"height_control", HeightCommand{State: HeightUp, Depth: -1}},
		{"rotation_control", RotationCommand{State: RotationRight, Rotation: 36}},
		{"movement_control", MovementCommand{State: MovementDistance, Direction: DirectionBackward, Distance: 2.5}},
	}
	if len(pub.messages) != len(want) {
		t.Fatalf("Expected %d publishes, got %d", len(want), len(pub.messages))
	}
	for i, w := range want {
		if pub.messages[i] != w {
			t.Errorf("Publish %d: expected %+v, got %+v", i, w, pub.messages[i])
		}
	}
}

func TestRepublishCurrentState(t *testing.T) {
	c, pub := newTestController()
	c.Start()

	c.SetRotationCode(RotationToTarget, 45)
	c.PublishRotation()

	if len(pub.messages) != 1 {
		t.Fatalf("Expected 1 publish, got %d", len(pub.messages))
	}
	got := pub.messages[0].record.(RotationCommand)
	if got.State != RotationToTarget || got.Rotation != 45 {
		t.Errorf("Unexpected republished record %+v", got)
	}
}

func TestStopDisablesPublishing(t *testing.T) {
	c, pub := newTestController()
	c.Start()
	c.Stop()
	c.Start()
	c.Stop()

	_ = c.MovementNav("power", "forward", 40)
	if len(pub.messages) != 0 {
		t.Errorf("Expected no publish after Stop, got %d", len(pub.messages))
	}
}

func TestInvalidStateNames(t *testing.T) {
	c, pub := newTestController()
	c.Start()

	tests := []struct {
		name string
		call func() error
		axis Axis
	}{
		{"height", func() error { return c.HeightNav("sideways", 0) }, AxisHeight},
		{"rotation", func() error { return c.RotationNav("spin", 0) }, AxisRotation},
		{"movement", func() error { return c.MovementNav("warp", "forward", 0) }, AxisMovement},
		{"direction", func() error { return c.MovementNav("power", "up", 0) }, AxisDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("Expected ErrInvalidState, got %v", err)
			}
			var stateErr *InvalidStateError
			if !errors.As(err, &stateErr) || stateErr.Axis != tt.axis {
				t.Errorf("Expected InvalidStateError for axis %s, got %v", tt.axis, err)
			}
		})
	}

	if len(pub.messages) != 0 {
		t.Errorf("Expected no publishes for invalid names, got %d", len(pub.messages))
	}
	if c.Movement() != (MovementCommand{}) {
		t.Errorf("Invalid direction must not change movement state, got %+v", c.Movement())
	}
}

func TestMovementMutualExclusion(t *testing.T) {
	c, _ := newTestController()

	steps := []struct {
		state string
		value float64
		want  MovementCommand
	}{
		{"power", 120, MovementCommand{State: MovementPower, Direction: DirectionForward, Power: 120}},
		{"distance", 3, MovementCommand{State: MovementDistance, Direction: DirectionForward, Distance: 3}},
		{"motor_time", 7, MovementCommand{State: MovementMotorTime, Direction: DirectionForward, RunningTime: 7}},
		{"front_cam_center", 9, MovementCommand{State: MovementFrontCamCenter, Direction: DirectionForward}},
		{"power", 40, MovementCommand{State: MovementPower, Direction: DirectionForward, Power: 40}},
		{"off", 5, MovementCommand{State: MovementOff, Direction: DirectionForward}},
	}

	for _, s := range steps {
		if err := c.SetMovement(s.state, "forward", s.value); err != nil {
			t.Fatalf("SetMovement(%s) failed: %v", s.state, err)
		}
		got := c.Movement()
		if got != s.want {
			t.Errorf("After %s: expected %+v, got %+v", s.state, s.want, got)
		}
		nonzero := 0
		for _, v := range []float64{got.Power, got.Distance, got.RunningTime} {
			if v != 0 {
				nonzero++
			}
		}
		if nonzero > 1 {
			t.Errorf("After %s: more than one magnitude set: %+v", s.state, got)
		}
	}
}

func TestSetByCodePassesThrough(t *testing.T) {
	c, _ := newTestController()

	c.SetHeightCode(HeightState(7), 1)
	if c.Height().State != HeightState(7) {
		t.Errorf("Expected raw code 7 to pass through, got %d", c.Height().State)
	}
	c.SetMovementCode(MovementState(9), Direction(6), 3)
	if c.Movement().State != MovementState(9) || c.Movement().Direction != Direction(6) {
		t.Errorf("Expected raw movement codes to pass through, got %+v", c.Movement())
	}
	if c.Movement().Power != 0 || c.Movement().Distance != 0 || c.Movement().RunningTime != 0 {
		t.Errorf("Unknown movement code must not route a magnitude, got %+v", c.Movement())
	}
}

func TestPublishErrorIsNotReturned(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("socket closed")}
	c := NewController(pub, nil, WithRateLimiter(NoPacing{}))
	c.Start()

	if err := c.HeightNav("down", 1); err != nil {
		t.Errorf("Transport errors should not surface, got %v", err)
	}
	if len(pub.messages) != 1 {
		t.Errorf("Expected publish attempt, got %d", len(pub.messages))
	}
}

func TestWithChannels(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewController(pub, nil,
		WithRateLimiter(NoPacing{}),
		WithChannels(Channels{Height: "auv/height", Movement: "auv/movement"}))
	c.Start()

	c.PublishHeight()
	c.PublishRotation()
	c.PublishMovement()

	got := []string{pub.messages[0].channel, pub.messages[1].channel, pub.messages[2].channel}
	want := []string{"auv/height", "rotation_control", "auv/movement"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Channel %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestEveryPublishIsPaced(t *testing.T) {
	clock := &fakeClock{}
	pub := &recordingPublisher{}
	c := NewController(pub, nil, WithRateLimiter(&FixedPause{Interval: DefaultPublishInterval, Clock: clock}))
	c.Start()

	_ = c.HeightNav("staying", 0)
	_ = c.RotationNav("staying", 0)
	_ = c.MovementNav("power", "none", 0)

	if len(clock.sleeps) != 3 {
		t.Fatalf("Expected 3 pauses, got %d", len(clock.sleeps))
	}
	for _, d := range clock.sleeps {
		if d != DefaultPublishInterval {
			t.Errorf("Expected %v pause, got %v", DefaultPublishInterval, d)
		}
	}
}

func TestRecordString(t *testing.T) {
	if got := (HeightCommand{State: HeightStaying}).String(); got != "state: 1 depth: 0.00" {
		t.Errorf("Unexpected height string %q", got)
	}
	if got := (RotationCommand{State: RotationLeft, Rotation: 180}).String(); got != "state: 0 rotation: 180.00" {
		t.Errorf("Unexpected rotation string %q", got)
	}
	want := "state: 1 direction: 1 power: 40.00 distance: 0.00 runningTime: 0.00"
	if got := NewMovementCommand(MovementPower, DirectionForward, 40).String(); got != want {
		t.Errorf("Unexpected movement string %q", got)
	}
}

func TestHaltPublishesFinalStop(t *testing.T) {
	c, pub := newTestController()
	c.Start()
	_ = c.MovementNav("power", "forward", 120)
	pub.messages = nil

	c.Halt()

	want := []published{
		{"height_control", HeightCommand{State: HeightStaying}},
		{"rotation_control", RotationCommand{State: RotationStaying}},
		{"movement_control", MovementCommand{State: MovementPower, Direction: DirectionNone}},
	}
	if len(pub.messages) != len(want) {
		t.Fatalf("Expected %d publishes, got %d", len(want), len(pub.messages))
	}
	for i, w := range want {
		if pub.messages[i] != w {
			t.Errorf("Publish %d: expected %+v, got %+v", i, w, pub.messages[i])
		}
	}
	if c.Armed() || !c.Halted() {
		t.Errorf("Expected halted and disarmed controller")
	}
}

func TestNothingPublishedAfterHalt(t *testing.T) {
	c, pub := newTestController()
	c.Start()
	c.Halt()
	pub.messages = nil

	c.Start()
	_ = c.MovementNav("power", "forward", 40)
	c.MovementNavCode(MovementPower, DirectionLeft, 40)
	c.PublishMovement()
	c.Halt()

	if len(pub.messages) != 0 {
		t.Errorf("Expected no publish after Halt, got %+v", pub.messages)
	}
	if c.Armed() {
		t.Errorf("Start after Halt must not re-arm")
	}
}

func TestHaltWhenDisarmedPublishesNothing(t *testing.T) {
	c, pub := newTestController()
	c.Halt()
	if len(pub.messages) != 0 {
		t.Errorf("Expected no publish when halting disarmed, got %d", len(pub.messages))
	}
}

func TestConcurrentNavAndKillswitch(t *testing.T) {
	c, pub := newTestController()
	c.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = c.MovementNav("power", "forward", 40)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Stop()
			c.Start()
		}
	}()
	wg.Wait()
	c.Halt()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	last := pub.messages[len(pub.messages)-1]
	if last.channel != "movement_control" || last.record != (MovementCommand{State: MovementPower, Direction: DirectionNone}) {
		t.Errorf("Expected the final stop to be the last publish, got %+v", last)
	}
}
