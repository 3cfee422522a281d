package roster

import (
	"errors"

	"presence-sync/core/channel"
	"presence-sync/core/logger"
	"presence-sync/core/trace"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for topic rosters.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the roster routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/roster")
	group.Get("/", h.HandleTopics)
	group.Get("/:topic", h.HandleRoster)
	group.Post("/:topic/state", h.HandleState)
	group.Post("/:topic/diff", h.HandleDiff)
	group.Post("/:topic/reconnect", h.HandleReconnect)
	group.Post("/:topic/replay", h.HandleReplay)
	group.Get("/:topic/journal", h.HandleJournal)
}

// HandleTopics lists the known topics.
func (h *Handler) HandleTopics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"topics": h.service.Topics()})
}

// HandleRoster returns the current roster of a topic.
func (h *Handler) HandleRoster(c *fiber.Ctx) error {
	snap, err := h.service.Roster(topicParam(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(snap)
}

// HandleState reconciles the topic against the full snapshot in the request body.
func (h *Handler) HandleState(c *fiber.Ctx) error {
	topic := topicParam(c)
	res, err := h.service.PushState(c.UserContext(), topic, c.Body())
	if err != nil {
		return h.fail(c, err)
	}

	logger.WithRayID(h.service.logger, c).Debug("Presence state applied",
		zap.String("topic", topic),
		zap.Int("changes", len(res.Changes)),
	)
	return c.JSON(res)
}

// HandleDiff merges the diff in the request body, or queues it while the topic is pending.
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	topic := topicParam(c)
	res, err := h.service.PushDiff(c.UserContext(), topic, c.Body())
	if err != nil {
		return h.fail(c, err)
	}

	status := fiber.StatusOK
	if res.Queued {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(res)
}

// HandleReconnect simulates a reconnect of the topic's channel.
func (h *Handler) HandleReconnect(c *fiber.Ctx) error {
	res, err := h.service.Reconnect(topicParam(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// replayRequest names the stored trace to replay.
type replayRequest struct {
	Object string `json:"object"`
}

// HandleReplay seeds the topic from a trace object in storage.
func (h *Handler) HandleReplay(c *fiber.Ctx) error {
	var req replayRequest
	if err := c.BodyParser(&req); err != nil || req.Object == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body must name a trace object"})
	}

	res, err := h.service.ReplayTrace(c.UserContext(), topicParam(c), req.Object)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleJournal returns the recorded changes of a topic.
func (h *Handler) HandleJournal(c *fiber.Ctx) error {
	topic := topicParam(c)
	entries, err := h.service.Journal(c.UserContext(), topic)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"topic": topic, "entries": entries})
}

// fail maps service errors to HTTP statuses.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnknownTopic):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrInvalidPayload):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrJournalDisabled), errors.Is(err, ErrTracesDisabled):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, channel.ErrNoHandler), errors.Is(err, trace.ErrInvalidStep), errors.Is(err, trace.ErrEmptyTrace):
		status = fiber.StatusUnprocessableEntity
	default:
		logger.WithRayID(h.service.logger, c).Error("Roster request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// topicParam returns a copy of the topic route parameter, which fiber only keeps valid
// for the duration of the request.
func topicParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("topic"))
}
