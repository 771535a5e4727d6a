// Package server exposes the mock EventSub service over HTTP and WebSocket.
//
// Control routes are served by Fiber. The /ws upgrade is dispatched to a raw
// fasthttp handler in front of the Fiber app, since the upgrader needs the
// *fasthttp.RequestCtx.
package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/orchestra-mcp/fakesub/config"
	"github.com/orchestra-mcp/fakesub/src/bridge"
	"github.com/orchestra-mcp/fakesub/src/catalog"
	"github.com/orchestra-mcp/fakesub/src/eventsub"
	"github.com/orchestra-mcp/fakesub/src/hub"
	"github.com/orchestra-mcp/fakesub/src/service"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Server owns every piece of process state: registry, catalog,
// subscriptions and the optional bridge.
type Server struct {
	cfg      *config.Config
	app      *fiber.App
	http     *fasthttp.Server
	upgrader websocket.FastHTTPUpgrader
	service  *service.Service
	subs     *eventsub.Store
	logger   zerolog.Logger

	mu     sync.Mutex
	bridge bridge.Bridge
}

// New builds a server and performs the initial catalog load. A catalog that
// fails to load leaves the server running with an empty catalog.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	h := hub.New(logger)
	c := catalog.New(cfg.CatalogFile, logger)
	if _, err := c.Reload(); err != nil {
		logger.Warn().Err(err).Msg("starting with an empty message catalog")
	}

	keepalive := cfg.KeepaliveInterval()
	if !cfg.SendKeepalives {
		keepalive = 0
	}

	s := &Server{
		cfg: cfg,
		service: service.New(h, c, service.Options{
			KeepaliveTimeout:  cfg.KeepaliveTimeout,
			KeepaliveInterval: keepalive,
		}, logger),
		subs:   eventsub.NewStore(logger),
		logger: logger.With().Str("component", "server").Logger(),
	}

	s.upgrader = websocket.FastHTTPUpgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     func(*fasthttp.RequestCtx) bool { return true },
	}

	s.app = fiber.New(fiber.Config{AppName: "fakesub"})
	s.app.Use(recoverer.New())
	s.app.Use(requestLogger(s.logger))
	s.registerRoutes()

	s.http = &fasthttp.Server{
		Handler: s.Handler(),
		Name:    "fakesub",
		Logger:  fasthttpLogger{s.logger},
	}
	return s
}

// Service returns the broadcast service.
func (s *Server) Service() *service.Service { return s.service }

// App returns the Fiber app serving the control routes.
func (s *Server) App() *fiber.App { return s.app }

// Handler returns the combined fasthttp handler: /ws upgrades, everything
// else goes to Fiber.
func (s *Server) Handler() fasthttp.RequestHandler {
	appHandler := s.app.Handler()
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/ws" {
			s.handleWebSocket(ctx)
			return
		}
		appHandler(ctx)
	}
}

// ListenAndServe listens on the configured address and serves until
// Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.cfg.Redis.Enabled {
		s.initBridge()
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("hosting server")
	return s.http.Serve(ln)
}

// initBridge tries to start the Redis pub/sub bridge.
// If Redis is not reachable, the server runs standalone.
func (s *Server) initBridge() {
	rb := bridge.NewRedisBridge(&s.cfg.Redis, s.service, s.logger)
	if err := rb.Start(); err != nil {
		s.logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
		return
	}

	s.mu.Lock()
	s.bridge = rb
	s.mu.Unlock()
	s.service.SetBridge(rb)
	s.logger.Info().Str("redis_addr", s.cfg.Redis.Addr).Msg("redis bridge connected")
}

// Shutdown closes client connections, stops the bridge and the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.service.Hub().CloseAll()

	var errs []error
	s.mu.Lock()
	if s.bridge != nil {
		s.service.SetBridge(nil)
		if err := s.bridge.Stop(); err != nil {
			errs = append(errs, err)
		}
		s.bridge = nil
	}
	s.mu.Unlock()

	if err := s.http.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// fasthttpLogger routes fasthttp's internal messages to zerolog.
type fasthttpLogger struct {
	logger zerolog.Logger
}

func (l fasthttpLogger) Printf(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}
