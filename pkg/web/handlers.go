package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/roverworks/go-rover5/pkg/hub"
	"github.com/roverworks/go-rover5/pkg/protocol"
	"github.com/roverworks/go-rover5/pkg/rover"
)

// statusResponse aggregates everything a dashboard polls for.
type statusResponse struct {
	Status        protocol.StatusData    `json:"status"`
	Telemetry     protocol.TelemetryData `json:"telemetry"`
	Hub           hub.Stats              `json:"hub"`
	ControlLoop   rover.LoopStats        `json:"control_loop"`
	TelemetryLoop rover.LoopStats        `json:"telemetry_loop"`
}

// configResponse is the flattened tuning state, keyed by the same
// parameter names POST /api/config accepts.
type configResponse struct {
	Mode          string  `json:"control_mode"`
	Curve         string  `json:"curve"`
	DeadZone      float64 `json:"dead_zone"`
	TurnFactor    float64 `json:"turn_factor"`
	MaxDuty       int     `json:"max_duty"`
	MinDuty       int     `json:"min_duty"`
	InvertLeft    bool    `json:"invert_left"`
	InvertRight   bool    `json:"invert_right"`
	WheelDiameter float64 `json:"wheel_diameter_mm"`
	Preset        string  `json:"preset"`
}

func (s *Server) configPayload() configResponse {
	cfg := s.rover.Config()
	return configResponse{
		Mode:          cfg.Mode.String(),
		Curve:         cfg.Curve.String(),
		DeadZone:      cfg.DeadZone,
		TurnFactor:    cfg.TurnFactor,
		MaxDuty:       cfg.MaxDuty,
		MinDuty:       cfg.MinDuty,
		InvertLeft:    cfg.InvertLeft,
		InvertRight:   cfg.InvertRight,
		WheelDiameter: s.rover.WheelDiameterMM(),
		Preset:        s.rover.Status().Preset,
	}
}

// handleStatus reports rover state, the freshest telemetry snapshot and
// loop diagnostics.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(statusResponse{
		Status:        s.rover.Status(),
		Telemetry:     s.rover.Snapshot(),
		Hub:           s.hub.GetStats(),
		ControlLoop:   s.rover.ControlStats(),
		TelemetryLoop: s.rover.TelemetryStats(),
	})
}

// handleGetConfig returns the current tuning.
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.configPayload())
}

// handleSetConfig applies one parameter change. The body is the same
// {param, value} pair the WebSocket config frame carries, and it runs
// through the same table, so both surfaces accept exactly the same
// inputs. The full post-change tuning is returned so callers see the
// effect of preset application immediately.
func (s *Server) handleSetConfig(c *fiber.Ctx) error {
	var req protocol.ConfigData
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed config request",
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := s.rover.ApplyConfig(req.Param, req.Value); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.configPayload())
}

// handleReset requests an odometry clear. The clear lands at the next
// telemetry tick, so a snapshot fetched immediately after may still show
// the old totals for up to one period.
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.rover.ResetOdometry()
	return c.JSON(fiber.Map{"status": "ok"})
}
