// Package web provides a real-time diagnostics dashboard for the world
// model: REST endpoints for the latest snapshot, terrain and loop
// counters, runtime tuning, and a websocket that streams snapshots.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/hub"
	"github.com/teslashibe/go-forager/pkg/tracking"
	"github.com/teslashibe/go-forager/pkg/worldmodel"
)

// Tracker is the modeling loop as the dashboard sees it
type Tracker interface {
	Snapshot() worldmodel.Snapshot
	TerrainView() []worldmodel.TileView
	Stats() tracking.Stats
	GetTuningParams() tracking.TuningParams
	SetTuningParams(tracking.TuningParams)
	Submit(ctx context.Context, fn tracking.Command) error
}

// LogEntry represents an event line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // admit, evict, harvest, config
	Message string `json:"message"`
}

const (
	maxLogs = 500

	// submitTimeout bounds how long a request waits for the loop
	submitTimeout = 2 * time.Second
)

// Server is the web dashboard server
type Server struct {
	app     *fiber.App
	port    string
	tracker Tracker
	cameras *camera.Manager
	logger  *slog.Logger

	// Log buffer (last maxLogs entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	worldHub *hub.Hub
	logHub   *hub.Hub

	// Every n-th snapshot is streamed
	every     int
	count     int
	lastCycle int
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStreamEvery streams only every n-th snapshot over /ws/world
func WithStreamEvery(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.every = n
		}
	}
}

// NewServer creates a new web dashboard server
func NewServer(port string, tracker Tracker, cameras *camera.Manager, opts ...Option) *Server {
	s := &Server{
		port:    port,
		tracker: tracker,
		cameras: cameras,
		logger:  slog.Default(),
		logs:    make([]LogEntry, 0, maxLogs),
		every:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.worldHub = hub.New("world", hub.WithLogger(s.logger))
	s.logHub = hub.New("logs", hub.WithLogger(s.logger))

	app := fiber.New(fiber.Config{
		AppName:               "Forager Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/world", s.handleWorld)
	api.Get("/objects", s.handleObjects)
	api.Post("/objects/:id/harvest", s.handleHarvest)
	api.Get("/terrain", s.handleTerrain)
	api.Get("/stats", s.handleStats)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)
	api.Get("/camera/presets", s.handleCameraPresets)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/world", websocket.New(s.handleWorldWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves the dashboard until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("web: dashboard listening", "url", "http://localhost:"+s.port)

	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.worldHub.Run(hubCtx)
	go s.logHub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(":" + s.port) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return <-errc
	}
}

// PublishSnapshot streams a snapshot to dashboard clients and logs the
// cycle's admissions and evictions. It never blocks, so it can be
// registered as the tracker's per-cycle callback.
func (s *Server) PublishSnapshot(snap worldmodel.Snapshot) {
	// Idle cycles republish the last diagnostics
	if d := snap.Diagnostics; d.Cycle > s.lastCycle {
		s.lastCycle = d.Cycle
		if d.Admitted > 0 {
			s.AddLog("admit", plural(d.Admitted, "object")+" confirmed")
		}
		if d.Evicted > 0 {
			s.AddLog("evict", plural(d.Evicted, "object")+" evicted")
		}
	}

	s.count++
	if s.count%s.every != 0 || s.worldHub.ClientCount() == 0 {
		return
	}
	if err := s.worldHub.BroadcastJSON("snapshot", snap); err != nil {
		s.logger.Warn("web: encode snapshot", "error", err)
	}
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON("log", entry)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
