package kioskd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/vanvalenlab/kiosk-client-go/internal/config"
	"github.com/vanvalenlab/kiosk-client-go/internal/kiosk"
)

const maxUploadSize = 100 * 1024 * 1024 // 100MB

// Server is a lightweight stand-in for a kiosk frontend. It speaks the same
// endpoints and JSON shapes as deepcell.org and walks every queued job
// through the lifecycle a real cluster would drive, without the ML workers.
type Server struct {
	app       *fiber.App
	store     Store
	validate  *validator.Validate
	logger    *zap.Logger
	stepDelay time.Duration
	jobTypes  []string
	failTypes map[string]bool
}

func New(cfg *config.KioskdConfig, store Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	failTypes := make(map[string]bool, len(cfg.FailJobTypes))
	for _, t := range cfg.FailJobTypes {
		failTypes[t] = true
	}

	jobTypes := cfg.JobTypes
	if len(jobTypes) == 0 {
		jobTypes = []string{"segmentation", "tracking"}
	}

	s := &Server{
		store:     store,
		validate:  validator.New(),
		logger:    logger.Named("kioskd"),
		stepDelay: time.Duration(cfg.StepDelayMS) * time.Millisecond,
		jobTypes:  jobTypes,
		failTypes: failTypes,
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             maxUploadSize,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	api := app.Group("/api")
	api.Post("/upload", s.handleUpload)
	api.Get("/jobtypes", s.handleJobTypes)
	api.Post("/predict", s.handlePredict)
	api.Post("/status", s.handleStatus)
	api.Post("/redis/expire", s.handleExpire)
	api.Post("/redis", s.handleLookup)

	s.app = app
	return s
}

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("kioskd listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// runJob advances a queued job through the lifecycle on the configured step
// delay. Job types listed in FailJobTypes end at failed with a stored
// reason; everything else ends at done with an output location.
func (s *Server) runJob(hash, jobType string) {
	ctx := context.Background()

	for _, status := range []string{"started", "running"} {
		time.Sleep(s.stepDelay)
		if err := s.store.SetField(ctx, hash, "status", status); err != nil {
			s.logger.Error("failed to advance job", zap.String("hash", hash), zap.Error(err))
			return
		}
	}

	time.Sleep(s.stepDelay)
	if s.failTypes[jobType] {
		_ = s.store.SetField(ctx, hash, "reason", fmt.Sprintf("job type %q always fails on this server", jobType))
		if err := s.store.SetField(ctx, hash, "status", kiosk.StatusFailed); err != nil {
			s.logger.Error("failed to finish job", zap.String("hash", hash), zap.Error(err))
		}
		return
	}

	output := fmt.Sprintf("/outputs/%s.zip", sanitizeHash(hash))
	_ = s.store.SetField(ctx, hash, "output_url", output)
	if err := s.store.SetField(ctx, hash, "status", kiosk.StatusDone); err != nil {
		s.logger.Error("failed to finish job", zap.String("hash", hash), zap.Error(err))
	}
}

func sanitizeHash(hash string) string {
	return strings.ReplaceAll(hash, ":", "_")
}
