// Package keyboard turns operator key presses into navigation commands.
package keyboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	customlog "github.com/open-teleop/auvnav/pkg/log"
)

// ErrNotReady is returned by Run when the interlock is not engaged
var ErrNotReady = errors.New("killswitch not engaged")

// KeySource yields one raw key per call, blocking until one is available
type KeySource interface {
	ReadKey() (rune, error)
}

// Prompter asks the operator for a line of input
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// Navigator is the part of navigation.Controller the dispatcher drives
type Navigator interface {
	Start()
	Stop()
	HeightNav(state string, depth float64) error
	RotationNav(state string, rotation float64) error
	MovementNav(state, direction string, value float64) error
}

// Settings holds the magnitude scales and limits
type Settings struct {
	PowerScale    int
	RotationScale float64
	MaxPower      int
	MaxRotation   float64
	KeyMap        KeyMap
}

// DefaultSettings returns the standard console settings
func DefaultSettings() Settings {
	return Settings{
		PowerScale:    40,
		RotationScale: 18.0,
		MaxPower:      400,
		MaxRotation:   180.0,
		KeyMap:        DefaultKeyMap(),
	}
}

// Dispatcher runs the read-decode-dispatch loop. Run and HandleKey must be
// driven from a single goroutine; Start and Stop may be called from others.
type Dispatcher struct {
	nav      Navigator
	keys     KeySource
	prompter Prompter
	out      io.Writer
	logger   customlog.Logger
	settings Settings

	armed    atomic.Bool
	running  atomic.Bool
	power    int
	rotation float64
}

// NewDispatcher creates an idle dispatcher. power and rotation start at one
// scale unit, as if '1' had been pressed.
func NewDispatcher(nav Navigator, keys KeySource, prompter Prompter, out io.Writer, logger customlog.Logger, settings Settings) *Dispatcher {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = customlog.Discard()
	}
	if settings.KeyMap == nil {
		settings.KeyMap = DefaultKeyMap()
	}
	return &Dispatcher{
		nav:      nav,
		keys:     keys,
		prompter: prompter,
		out:      out,
		logger:   logger,
		settings: settings,
		power:    settings.PowerScale,
		rotation: settings.RotationScale,
	}
}

// Start engages the interlock on the dispatcher and its navigator
func (d *Dispatcher) Start() {
	d.armed.Store(true)
	d.nav.Start()
}

// Stop releases the interlock on the dispatcher and its navigator
func (d *Dispatcher) Stop() {
	d.armed.Store(false)
	d.nav.Stop()
}

// Armed reports whether Start has been called without a later Stop
func (d *Dispatcher) Armed() bool { return d.armed.Load() }

// Running reports whether Run is reading keys
func (d *Dispatcher) Running() bool { return d.running.Load() }

// Power returns the selected movement power
func (d *Dispatcher) Power() int { return d.power }

// Rotation returns the selected rotation in degrees
func (d *Dispatcher) Rotation() float64 { return d.rotation }

// Run reads and dispatches keys until the exit key. It returns ErrNotReady
// without reading anything when the interlock is off. Exiting leaves the
// interlock as it was.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.armed.Load() {
		fmt.Fprintln(d.out, "Killswitch is not engaged, navigation not ready.")
		return ErrNotReady
	}

	d.running.Store(true)
	defer d.running.Store(false)

	fmt.Fprint(d.out, "\n"+d.settings.KeyMap.Help())
	d.logger.Infof("Keyboard session started (power=%d rotation=%.2f)", d.power, d.rotation)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, err := d.keys.ReadKey()
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}
		// a key pressed while shutting down is dropped
		if err := ctx.Err(); err != nil {
			return err
		}

		exit, err := d.HandleKey(ctx, key)
		if err != nil {
			return err
		}
		if exit {
			d.logger.Infof("Keyboard session ended by operator")
			return nil
		}
	}
}

// HandleKey applies a single key. It reports true when the key ends the session.
func (d *Dispatcher) HandleKey(ctx context.Context, key rune) (bool, error) {
	action, bound := d.settings.KeyMap[key]
	if !bound {
		if n, ok := digitMagnitude(key); ok {
			d.power = n * d.settings.PowerScale
			d.rotation = float64(n) * d.settings.RotationScale
			fmt.Fprintf(d.out, "power: %d rotation: %.2f degrees\n", d.power, d.rotation)
		}
		// anything else is ignored
		return false, nil
	}

	switch action {
	case ActionExit:
		return true, nil
	case ActionCustomPower:
		return false, d.promptPower(ctx)
	case ActionCustomRotation:
		return false, d.promptRotation(ctx)
	default:
		return false, d.navigate(action)
	}
}

func (d *Dispatcher) navigate(action Action) error {
	power := float64(d.power)

	switch action {
	case ActionStop:
		if err := d.nav.HeightNav("staying", 0); err != nil {
			return err
		}
		if err := d.nav.RotationNav("staying", 0); err != nil {
			return err
		}
		return d.nav.MovementNav("power", "none", 0)
	case ActionForward:
		return d.nav.MovementNav("power", "forward", power)
	case ActionBackward:
		return d.nav.MovementNav("power", "backward", power)
	case ActionStrafeLeft:
		return d.nav.MovementNav("power", "left", power)
	case ActionStrafeRight:
		return d.nav.MovementNav("power", "right", power)
	case ActionRotateLeft:
		return d.nav.RotationNav("left", d.rotation)
	case ActionRotateRight:
		return d.nav.RotationNav("right", d.rotation)
	case ActionAscend:
		return d.nav.HeightNav("up", power)
	case ActionDescend:
		return d.nav.HeightNav("down", power)
	}
	return nil
}

// promptPower re-prompts until the operator enters a valid power. Only a
// cancelled context or a prompter error ends it early.
func (d *Dispatcher) promptPower(ctx context.Context) error {
	prompt := fmt.Sprintf("\nEnter a custom power value [0-%d]: ", d.settings.MaxPower)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := d.prompter.Prompt(prompt)
		if err != nil {
			return fmt.Errorf("custom power: %w", err)
		}
		if v, ok := ParsePower(line, d.settings.MaxPower); ok {
			d.power = v
			fmt.Fprintf(d.out, "power: %d\n", d.power)
			return nil
		}
		d.logger.Debugf("Rejected custom power %q", line)
	}
}

func (d *Dispatcher) promptRotation(ctx context.Context) error {
	prompt := fmt.Sprintf("\nEnter a custom rotation value [0-%g]: ", d.settings.MaxRotation)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := d.prompter.Prompt(prompt)
		if err != nil {
			return fmt.Errorf("custom rotation: %w", err)
		}
		if v, ok := ParseRotation(line, d.settings.MaxRotation); ok {
			d.rotation = v
			fmt.Fprintf(d.out, "rotation: %.2f degrees\n", d.rotation)
			return nil
		}
		d.logger.Debugf("Rejected custom rotation %q", line)
	}
}
