package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/mukhtar/internal/assistant"
	"github.com/nerrad567/mukhtar/internal/automation"
	"github.com/nerrad567/mukhtar/internal/command"
	"github.com/nerrad567/mukhtar/internal/device"
	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
	"github.com/nerrad567/mukhtar/internal/infrastructure/logging"
	"github.com/nerrad567/mukhtar/internal/journal"
	"github.com/nerrad567/mukhtar/internal/sensor"
	"github.com/nerrad567/mukhtar/internal/status"
)

const gracefulShutdownTimeout = 10 * time.Second

// Devices is the device registry surface the API uses.
type Devices interface {
	TurnOn(ctx context.Context, name string) error
	TurnOff(ctx context.Context, name string) error
	Get(name string) (device.Device, error)
	Devices() []device.Device
	GetStats() device.Stats
}

// Sensors reads sensors on demand.
type Sensors interface {
	Read(ctx context.Context, kind sensor.Kind) (sensor.Reading, error)
	Enabled(kind sensor.Kind) bool
}

// Reporter builds status snapshots.
type Reporter interface {
	Report(ctx context.Context) status.Snapshot
}

// Commander executes free-text commands and classified intents.
type Commander interface {
	Handle(ctx context.Context, text string) assistant.Response
	Execute(ctx context.Context, intent command.Intent) assistant.Response
}

// Mode is the automation switch.
type Mode interface {
	Auto() bool
	Set(auto bool) bool
}

// Journal lists recorded events.
type Journal interface {
	List(ctx context.Context, f journal.Filter) (*journal.ListResult, error)
}

// LoopStats exposes automation loop counters.
type LoopStats interface {
	Stats() automation.Stats
}

// Recorder is told about every command handled over HTTP.
type Recorder interface {
	CommandHandled(ctx context.Context, source, text, action string, ok bool)
}

// HealthChecker reports the state of an optional dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
// Journal, Loop, Recorder and Checks are optional.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Devices  Devices
	Sensors  Sensors
	Reporter Reporter
	Commands Commander
	Mode     Mode
	Journal  Journal
	Loop     LoopStats
	Recorder Recorder
	Checks   map[string]HealthChecker

	// Hub, if set, is used instead of creating one, so that components
	// built before the server can broadcast through it.
	Hub     *Hub
	Version string
}

// Server is the HTTP API server. It mirrors the console: every action
// available there is available here, through the same components.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	devices  Devices
	sensors  Sensors
	reporter Reporter
	commands Commander
	mode     Mode
	journal  Journal
	loop     LoopStats
	recorder Recorder
	checks   map[string]HealthChecker
	version  string

	server      *http.Server
	listener    net.Listener
	hub         *Hub
	externalHub bool
	startTime   time.Time
	cancel      context.CancelFunc
}

// New creates a server. It is not listening until Start.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Devices == nil:
		return nil, fmt.Errorf("device registry is required")
	case deps.Sensors == nil:
		return nil, fmt.Errorf("sensor gateway is required")
	case deps.Reporter == nil:
		return nil, fmt.Errorf("status reporter is required")
	case deps.Commands == nil:
		return nil, fmt.Errorf("command dispatcher is required")
	case deps.Mode == nil:
		return nil, fmt.Errorf("automation mode is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger.Component("api"),
		devices:   deps.Devices,
		sensors:   deps.Sensors,
		reporter:  deps.Reporter,
		commands:  deps.Commands,
		mode:      deps.Mode,
		journal:   deps.Journal,
		loop:      deps.Loop,
		recorder:  deps.Recorder,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}
	return s, nil
}

// Hub returns the websocket hub, creating it if Start has not run yet.
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// Handler returns the router. Exposed for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	hub := s.Hub()
	if !s.externalHub {
		go hub.Run(srvCtx)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening: %w", err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops background goroutines and shuts the listener down,
// waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
