package roster

import (
	"presence-sync/core/journal"
	"presence-sync/core/metrics"
	"presence-sync/core/presence"
	"presence-sync/core/trace"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new roster feature. collector, recorder and traces may be nil.
func NewFeature(cfg presence.Config, collector *metrics.Collector, recorder *journal.Recorder, traces *trace.Cache, logger *zap.Logger) *Feature {
	svc := NewService(cfg, collector, recorder, logger).WithTraces(traces)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "roster"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
