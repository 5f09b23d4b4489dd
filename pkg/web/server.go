// Package web serves the operator surface: static UI assets, a small
// REST API over the rover's state and tuning, and the /ws realtime link.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/hub"
	"github.com/roverworks/go-rover5/pkg/protocol"
	"github.com/roverworks/go-rover5/pkg/rover"
)

// Options configures the server.
type Options struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string

	// StaticDir holds the operator UI files. Defaults to "./web".
	// Requests that miss the directory fall through to the API routes.
	StaticDir string
}

// Server owns the Fiber app, the WebSocket hub and their wiring into
// the rover. Construct with New, then Start; Shutdown tears down the
// listener and the hub together.
type Server struct {
	app   *fiber.App
	hub   *hub.Hub
	rover *rover.Rover
	addr  string
}

// New wires a server around the rover. The hub's inbound callbacks are
// bound here: control frames feed the command relay, config frames go
// through the shared parameter table, status queries read the rover.
func New(r *rover.Rover, h *hub.Hub, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "./web"
	}

	s := &Server{
		hub:   h,
		rover: r,
		addr:  opts.Addr,
	}

	h.OnControl(func(ctl *protocol.ControlData) {
		r.Push(rover.Command{
			Angle:     ctl.Angle,
			Magnitude: ctl.Magnitude,
			Timestamp: ctl.Timestamp,
		})
	})
	h.OnConfig(func(cfg *protocol.ConfigData) error {
		return r.ApplyConfig(cfg.Param, cfg.Value)
	})
	h.OnStatus(r.Status)

	app := fiber.New(fiber.Config{
		AppName:               "roverd",
		DisableStartupMessage: true,
	})

	// CORS stays permissive; the operator UI is often served from a
	// laptop while the daemon runs on the vehicle.
	app.Use(cors.New())

	app.Static("/", opts.StaticDir)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleGetConfig)
	api.Post("/config", s.handleSetConfig)
	api.Post("/reset", s.handleReset)

	h.RegisterRoutes(app)

	s.app = app
	return s
}

// Start runs the hub and blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	go s.hub.Run()
	log.Info("web server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the listener gracefully, then the hub.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.hub.Stop()
	return err
}

// App exposes the Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}
