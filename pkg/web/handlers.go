package web

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/hub"
	"github.com/teslashibe/go-forager/pkg/motion"
	"github.com/teslashibe/go-forager/pkg/tracking"
	"github.com/teslashibe/go-forager/pkg/worldmodel"
)

// handleWorld returns the latest world snapshot
func (s *Server) handleWorld(c *fiber.Ctx) error {
	return c.JSON(s.tracker.Snapshot())
}

// handleObjects returns confirmed objects, optionally filtered by
// ?name=a,b or repeated name parameters
func (s *Server) handleObjects(c *fiber.Ctx) error {
	names := map[string]bool{}
	for _, raw := range c.Context().QueryArgs().PeekMulti("name") {
		for _, n := range strings.Split(string(raw), ",") {
			if n = strings.TrimSpace(n); n != "" {
				names[n] = true
			}
		}
	}

	objects := s.tracker.Snapshot().Objects
	if len(names) == 0 {
		return c.JSON(objects)
	}
	out := make([]worldmodel.ObjectView, 0, len(objects))
	for _, o := range objects {
		if names[o.Name] {
			out = append(out, o)
		}
	}
	return c.JSON(out)
}

// handleHarvest records that the player harvested an object
func (s *Server) handleHarvest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid object id",
		})
	}

	var result error
	ctx, cancel := context.WithTimeout(c.UserContext(), submitTimeout)
	defer cancel()
	err = s.tracker.Submit(ctx, func(w *worldmodel.World, _ *motion.DeadReckoner) {
		for _, e := range w.Objects() {
			if e.ID() == id {
				result = w.HarvestObject(e)
				return
			}
		}
		result = worldmodel.ErrNotInWorld
	})
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	switch {
	case errors.Is(result, worldmodel.ErrNotInWorld):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": result.Error()})
	case errors.Is(result, worldmodel.ErrNotHarvestable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": result.Error()})
	case result != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": result.Error()})
	}

	s.AddLog("harvest", "harvested "+id.String())
	return c.JSON(fiber.Map{"id": id.String(), "harvested": true})
}

// handleTerrain returns every labelled terrain tile
func (s *Server) handleTerrain(c *fiber.Ctx) error {
	return c.JSON(s.tracker.TerrainView())
}

// handleStats returns the loop counters
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.tracker.Stats())
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleGetCamera returns the active camera config
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(s.cameras.GetConfig())
}

// handleSetCamera applies a partial camera update, e.g.
// {"pitch": 45} or {"preset": "zoomed_out"}
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.cameras.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cfg := s.cameras.GetConfig()
	s.AddLog("config", fmt.Sprintf("camera %dx%d pitch %.1f distance %.1f", cfg.Width, cfg.Height, cfg.Pitch, cfg.Distance))
	return c.JSON(cfg)
}

// handleCameraPresets lists the preset names
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

// handleGetTuning returns the live loop parameters
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.tracker.GetTuningParams())
}

// handleSetTuning applies the non-zero fields of a tuning update
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.tracker.SetTuningParams(params)

	current := s.tracker.GetTuningParams()
	s.AddLog("config", fmt.Sprintf("tuning kp %.2f kd %.2f %.1f Hz", current.DriftKp, current.DriftKd, current.CycleHz))
	return c.JSON(current)
}

// handleWorldWS streams snapshots, starting with the current one
func (s *Server) handleWorldWS(c *websocket.Conn) {
	var initial []hub.Message
	if msg, err := hub.NewJSONMessage("snapshot", s.tracker.Snapshot()); err == nil {
		initial = append(initial, msg)
	}
	hub.NewClient(s.worldHub, c, initial...).Run()
}

// handleLogsWS streams log entries, starting with the buffered ones
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	initial := make([]hub.Message, 0, len(s.logs))
	for _, entry := range s.logs {
		if msg, err := hub.NewJSONMessage("log", entry); err == nil {
			initial = append(initial, msg)
		}
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c, initial...).Run()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
