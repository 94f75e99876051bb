package kioskd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vanvalenlab/kiosk-client-go/pkg/response"
)

type predictRequest struct {
	JobType      string `json:"jobType" validate:"required"`
	UploadedName string `json:"uploadedName" validate:"required"`
}

type hashRequest struct {
	Hash string `json:"hash" validate:"required"`
}

type expireRequest struct {
	Hash     string `json:"hash" validate:"required"`
	ExpireIn int    `json:"expireIn" validate:"required,gt=0"`
}

type lookupRequest struct {
	Hash string `json:"hash" validate:"required"`
	Key  string `json:"key" validate:"required"`
}

// handleUpload accepts a multipart body with a "file" field and answers with
// a server-assigned storage name. The bytes themselves are discarded; only
// the name matters to the job flow.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "file is required")
	}

	uploadedName := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	s.logger.Debug("file uploaded",
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.String("uploadedName", uploadedName))

	return c.JSON(fiber.Map{
		"uploadedName": uploadedName,
		"imageURL":     "/uploads/" + uploadedName,
	})
}

func (s *Server) handleJobTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"jobTypes": s.jobTypes})
}

// handlePredict queues a job and kicks off its simulated lifecycle.
func (s *Server) handlePredict(c *fiber.Ctx) error {
	var req predictRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	hash := fmt.Sprintf("predict:%s:%s", req.JobType, uuid.New().String())
	rec := &JobRecord{
		Hash:         hash,
		JobType:      req.JobType,
		UploadedName: req.UploadedName,
		Status:       "queued",
		CreatedAt:    time.Now(),
	}
	if err := s.store.SaveJob(c.Context(), rec); err != nil {
		return response.ServiceError(c, err.Error())
	}

	s.logger.Info("job queued",
		zap.String("hash", hash),
		zap.String("jobType", req.JobType))
	go s.runJob(hash, req.JobType)

	return c.JSON(fiber.Map{"hash": hash})
}

// handleStatus answers with the job's current status field, or an empty
// object when the hash is unknown or has no status yet.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	var req hashRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	status, err := s.store.GetField(c.Context(), req.Hash, "status")
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if status == "" {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(fiber.Map{"status": status})
}

// handleExpire applies a TTL to the job record. Like redis EXPIRE, the
// answer is 1 when a record was touched and 0 when the hash is unknown.
func (s *Server) handleExpire(c *fiber.Ctx) error {
	var req expireRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	touched, err := s.store.Expire(c.Context(), req.Hash, time.Duration(req.ExpireIn)*time.Second)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	value := 0
	if touched {
		value = 1
	}
	return c.JSON(fiber.Map{"value": value})
}

// handleLookup answers with a single stored field of the job record, or an
// empty object when the field is absent.
func (s *Server) handleLookup(c *fiber.Ctx) error {
	var req lookupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	value, err := s.store.GetField(c.Context(), req.Hash, req.Key)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if value == "" {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(fiber.Map{"value": value})
}
