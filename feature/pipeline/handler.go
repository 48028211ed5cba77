package pipeline

import (
	"placement-excluder/core/logger"
	"placement-excluder/core/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the pipeline over HTTP: triggering runs, ingesting pushed
// events, and reading the run ledger.
type Handler struct {
	coordinator *Coordinator
	bus         MessageBus
	tracker     *tracking.Recorder
	logger      *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(coordinator *Coordinator, bus MessageBus, tracker *tracking.Recorder, log *zap.Logger) *Handler {
	return &Handler{coordinator: coordinator, bus: bus, tracker: tracker, logger: log}
}

// RegisterRoutes registers the pipeline routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/pipeline")
	group.Post("/run", h.HandleRun)
	group.Post("/event", h.HandleEvent)
	app.Get("/runs", h.HandleRuns)
}

type runRequest struct {
	SheetID string `json:"sheet_id"`
}

// HandleRun starts a pipeline run by publishing the accounts stage message.
// The run executes asynchronously; the response only acknowledges dispatch.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req runRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "invalid request body",
		})
	}
	if req.SheetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "sheet_id is required",
		})
	}

	msg := Message{
		Stage:   StageAccounts,
		RunID:   uuid.New().String(),
		SheetID: req.SheetID,
	}
	if err := h.bus.Publish(c.Context(), StageAccounts.Topic(), msg); err != nil {
		l.Error("Failed to dispatch pipeline run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "failed to dispatch run",
		})
	}

	l.Info("Dispatched pipeline run",
		zap.String("run_id", msg.RunID),
		zap.String("sheet_id", req.SheetID))
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "pipeline run dispatched",
		"run_id":  msg.RunID,
	})
}

type eventRequest struct {
	Data string `json:"data"`
}

// HandleEvent ingests one pushed stage event whose data field is a base64
// encoded stage message, and executes the stage inline. A processing failure
// returns 500 so the pushing transport redelivers.
func (h *Handler) HandleEvent(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "invalid request body",
		})
	}

	msg, err := DecodeEvent(req.Data)
	if err != nil {
		l.Warn("Rejecting undecodable event", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	if err := h.coordinator.Handler(msg.Stage)(c.Context(), msg.encoded()); err != nil {
		l.Error("Stage execution failed",
			zap.String("stage", string(msg.Stage)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "stage execution failed",
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"stage":  msg.Stage,
	})
}

// HandleRuns returns the most recent stage runs from the tracking ledger.
func (h *Handler) HandleRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	runs, err := h.tracker.Recent(c.Context(), limit)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to read run ledger", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "failed to read run ledger",
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"runs":   runs,
	})
}
