package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/open-teleop/auvnav/domain/keyboard"
	"github.com/open-teleop/auvnav/domain/navigation"
	"github.com/open-teleop/auvnav/pkg/api"
	"github.com/open-teleop/auvnav/pkg/codec"
	"github.com/open-teleop/auvnav/pkg/config"
	"github.com/open-teleop/auvnav/pkg/console"
	customlog "github.com/open-teleop/auvnav/pkg/log"
	"github.com/open-teleop/auvnav/pkg/messaging"
	"github.com/open-teleop/auvnav/pkg/zeromq"
	"github.com/open-teleop/auvnav/services"
)

type sink interface {
	services.Sink
	Close() error
}

// keyConsole is what the dispatcher reads from
type keyConsole interface {
	keyboard.KeySource
	keyboard.Prompter
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auvnav: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defaultDir := os.Getenv("AUVNAV_CONFIG_DIR")
	if defaultDir == "" {
		defaultDir = "./config"
	}
	configDir := flag.String("config-dir", defaultDir, "directory containing "+config.BootstrapFileName)
	flag.Parse()

	cfg, err := config.LoadBootstrapConfig(*configDir)
	if err != nil {
		return fmt.Errorf("failed to load bootstrap configuration: %w", err)
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	session := uuid.NewString()
	logger = logger.WithField("session", session[:8])
	logger.Infof("Starting auvnav (backend=%s encoding=%s input=%s)",
		cfg.Transport.Backend, cfg.Transport.Encoding, cfg.Keyboard.Input)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warnf("Error closing %s sink: %v", cfg.Transport.Backend, err)
		}
	}()

	encoder, err := codec.New(cfg.Transport.Encoding, session)
	if err != nil {
		return err
	}
	bus, err := services.NewCommandBus(encoder, out, logger.WithField("component", "bus"))
	if err != nil {
		return err
	}

	nav := navigation.NewController(bus, logger.WithField("component", "navigation"),
		navigation.WithRateLimiter(rateLimiter(cfg.Navigation.RateLimit)),
		navigation.WithChannels(navigation.Channels{
			Height:   cfg.Navigation.Channels.Height,
			Rotation: cfg.Navigation.Channels.Rotation,
			Movement: cfg.Navigation.Channels.Movement,
		}),
	)

	keymap, err := keyboard.DefaultKeyMap().WithBindings(cfg.Keyboard.BindingKeys())
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}

	var (
		keys    keyConsole
		display io.Writer = os.Stdout
		remote  *api.RemoteConsole
	)
	switch cfg.Keyboard.Input {
	case config.InputWebsocket:
		remote = api.NewRemoteConsole(0)
		keys = remote
		display = io.MultiWriter(os.Stdout, remote)
	default:
		if t, err := console.OpenTerminal(os.Stdin, os.Stdout); err == nil {
			keys = t
			display = t.Output()
		} else {
			logger.Warnf("Falling back to line input: %v", err)
			keys = nopCloser{console.NewReader(os.Stdin, os.Stdout)}
		}
	}
	defer keys.Close()

	dispatcher := keyboard.NewDispatcher(nav, keys, keys, display,
		logger.WithField("component", "keyboard"),
		keyboard.Settings{
			PowerScale:    cfg.Keyboard.PowerScale,
			RotationScale: cfg.Keyboard.RotationScale,
			MaxPower:      cfg.Keyboard.MaxPower,
			MaxRotation:   cfg.Keyboard.MaxRotation,
			KeyMap:        keymap,
		})

	ks := newKillswitch(dispatcher)

	var app *fiber.App
	if cfg.Server.HTTPPort > 0 {
		app = api.NewServer(api.ServerOptions{
			Config:     cfg,
			Session:    session,
			Status:     bus,
			Killswitch: ks,
			Remote:     remote,
			Logger:     logger.WithField("component", "api"),
		})
		go func() {
			addr := ":" + strconv.Itoa(cfg.Server.HTTPPort)
			logger.Infof("Status server starting on %s", addr)
			if err := app.Listen(addr); err != nil {
				logger.Errorf("Status server stopped: %v", err)
			}
		}()
	}

	if cfg.Keyboard.ShouldArmOnStart() {
		ks.Start()
	} else {
		logger.Infof("Waiting for PUT /api/v1/killswitch to engage navigation")
	}

	runDone := make(chan error, 1)
	go func() {
		select {
		case <-ks.Engaged():
		case <-ctx.Done():
			runDone <- ctx.Err()
			return
		}
		runDone <- dispatcher.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-runDone:
		switch {
		case err == nil:
		case errors.Is(err, keyboard.ErrNotReady):
			logger.Warnf("Dispatcher did not start: interlock is off")
		case errors.Is(err, console.ErrInterrupted), errors.Is(err, io.EOF):
			logger.Infof("Input closed, shutting down")
		default:
			logger.Errorf("Dispatcher stopped: %v", err)
		}
	case sig := <-quit:
		logger.Infof("Received %s, shutting down", sig)
		cancel()
		keys.Close()
	}

	// Halt is serialized with any key the dispatcher is still handling and
	// leaves the vehicle holding position; nothing publishes after it.
	nav.Halt()

	if app != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warnf("Status server forced to shutdown: %v", err)
		}
	}

	logger.Infof("auvnav exited properly")
	return nil
}

func openSink(ctx context.Context, cfg *config.BootstrapConfig, logger customlog.Logger) (sink, error) {
	if cfg.Transport.Backend == config.BackendZeroMQ {
		pub, err := zeromq.NewPublisher(cfg.Transport.ZeroMQ.PublishBindAddress, logger.WithField("component", "zeromq"))
		if err != nil {
			return nil, fmt.Errorf("failed to create ZeroMQ publisher: %w", err)
		}
		return pub, nil
	}

	client := messaging.NewClient(cfg.Transport, logger.WithField("component", "messaging"))
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("failed to connect %s backend: %w", cfg.Transport.Backend, err)
	}
	return client, nil
}

func rateLimiter(cfg config.RateLimitConfig) navigation.RateLimiter {
	interval := cfg.Interval()
	switch {
	case cfg.Policy == config.RatePolicyNone, interval <= 0:
		return navigation.NoPacing{}
	case cfg.Policy == config.RatePolicyMinInterval:
		return navigation.NewMinInterval(interval)
	default:
		return navigation.NewFixedPause(interval)
	}
}

// killswitch wraps the dispatcher so the first engage releases the
// goroutine waiting to run the keyboard session.
type killswitch struct {
	*keyboard.Dispatcher
	once    sync.Once
	engaged chan struct{}
}

func newKillswitch(d *keyboard.Dispatcher) *killswitch {
	return &killswitch{Dispatcher: d, engaged: make(chan struct{})}
}

func (k *killswitch) Start() {
	k.Dispatcher.Start()
	k.once.Do(func() { close(k.engaged) })
}

// Engaged is closed the first time the killswitch is engaged
func (k *killswitch) Engaged() <-chan struct{} {
	return k.engaged
}

type nopCloser struct {
	*console.Reader
}

func (nopCloser) Close() error { return nil }
