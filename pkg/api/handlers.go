package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gopkg.in/yaml.v3"

	"github.com/open-teleop/auvnav/pkg/config"
	customlog "github.com/open-teleop/auvnav/pkg/log"
	"github.com/open-teleop/auvnav/services"
)

// StatusSource reports the last command published on each channel
type StatusSource interface {
	Snapshot() []services.ChannelStatus
}

// Killswitch is the operator interlock, implemented by keyboard.Dispatcher
type Killswitch interface {
	Start()
	Stop()
	Armed() bool
}

// ServerOptions holds the dependencies of the status server
type ServerOptions struct {
	Config  *config.BootstrapConfig
	Session string
	Status  StatusSource
	// Killswitch is nil unless the interlock can be toggled over HTTP
	Killswitch Killswitch
	// Remote is nil unless keys are taken from the websocket
	Remote *RemoteConsole
	// AccessLog receives request lines. nil disables access logging.
	AccessLog io.Writer
	Logger    customlog.Logger
}

// StatusHandler serves the HTTP endpoints
type StatusHandler struct {
	cfg        *config.BootstrapConfig
	session    string
	status     StatusSource
	killswitch Killswitch
	logger     customlog.Logger
}

// NewServer creates the Fiber app with every route registered
func NewServer(opts ServerOptions) *fiber.App {
	if opts.Config == nil {
		panic("Config cannot be nil in NewServer")
	}
	if opts.Status == nil {
		panic("StatusSource cannot be nil in NewServer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = customlog.Discard()
	}

	app := fiber.New(fiber.Config{
		AppName:               "auvnav",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})
	if opts.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: opts.AccessLog}))
	}
	app.Use(recover.New())

	h := &StatusHandler{
		cfg:        opts.Config,
		session:    opts.Session,
		status:     opts.Status,
		killswitch: opts.Killswitch,
		logger:     logger,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/status", h.handleGetStatus)
	v1.Get("/config", h.handleGetConfig)
	if opts.Killswitch != nil {
		v1.Get("/killswitch", h.handleGetKillswitch)
		v1.Put("/killswitch", h.handlePutKillswitch)
	}

	if opts.Remote != nil {
		RegisterKeyRoutes(app, opts.Remote, logger)
	}

	logger.Infof("Registered status API endpoints under /api/v1")
	return app
}

func (h *StatusHandler) handleGetStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Session:  h.session,
		Backend:  h.cfg.Transport.Backend,
		Encoding: h.cfg.Transport.Encoding,
		Channels: h.status.Snapshot(),
	})
}

// handleGetConfig returns the effective configuration as YAML, secrets removed
func (h *StatusHandler) handleGetConfig(c *fiber.Ctx) error {
	redacted := *h.cfg
	redacted.Transport.Redis.Password = ""

	yamlData, err := yaml.Marshal(&redacted)
	if err != nil {
		h.logger.Errorf("Failed to marshal configuration: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

func (h *StatusHandler) handleGetKillswitch(c *fiber.Ctx) error {
	return c.JSON(KillswitchState{Engaged: h.killswitch.Armed()})
}

// handlePutKillswitch engages or releases the interlock
func (h *StatusHandler) handlePutKillswitch(c *fiber.Ctx) error {
	var req KillswitchState
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid killswitch request: %v", err),
		})
	}

	if req.Engaged {
		h.killswitch.Start()
	} else {
		h.killswitch.Stop()
	}
	h.logger.Infof("Killswitch set to engaged=%t over HTTP from %s", req.Engaged, c.IP())
	return c.JSON(KillswitchState{Engaged: h.killswitch.Armed()})
}

// RegisterKeyRoutes exposes the remote key console at /ws/keys
func RegisterKeyRoutes(app *fiber.App, remote *RemoteConsole, logger customlog.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/keys", websocket.New(KeysWebSocketHandler(remote, logger)))
	logger.Infof("Registered remote keyboard at /ws/keys")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
