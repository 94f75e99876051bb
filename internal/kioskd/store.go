package kioskd

import (
	"context"
	"time"
)

// JobRecord is the server-side view of one queued job. Records are persisted
// as field maps keyed by the job hash, mirroring the redis hash layout of a
// real kiosk deployment.
type JobRecord struct {
	Hash         string
	JobType      string
	UploadedName string
	Status       string
	CreatedAt    time.Time
}

// Store persists job records. Absent hashes and absent fields both read back
// as an empty value; only Expire distinguishes unknown hashes, answering
// false the way redis EXPIRE answers 0.
type Store interface {
	SaveJob(ctx context.Context, rec *JobRecord) error
	SetField(ctx context.Context, hash, field, value string) error
	GetField(ctx context.Context, hash, field string) (string, error)
	Expire(ctx context.Context, hash string, ttl time.Duration) (bool, error)
}

func (r *JobRecord) fields() map[string]string {
	return map[string]string{
		"jobType":      r.JobType,
		"uploadedName": r.UploadedName,
		"status":       r.Status,
		"created_at":   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
