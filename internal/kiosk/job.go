package kiosk

// Terminal status values reported by the kiosk. Deployments can override
// them through config.KioskConfig.
const (
	StatusFailed = "failed"
	StatusDone   = "done"
)

// Job tracks a single unit of remote image-processing work. A fresh Job has
// no hash and no status; the hash is assigned once by Client.Create and
// never cleared, and the status always reflects the most recent successful
// query. A Job is owned by the caller that constructed it and is not safe
// for concurrent use.
type Job struct {
	jobType string
	hash    string
	status  string
	expired bool
}

// NewJob returns an unqueued Job of the given type.
func NewJob(jobType string) *Job {
	return &Job{jobType: jobType}
}

// JobType returns the type supplied at construction.
func (j *Job) JobType() string {
	return j.jobType
}

// Hash returns the server-assigned job identifier, or "" before the job has
// been queued.
func (j *Job) Hash() string {
	return j.hash
}

// Status returns the most recently observed status, or "" if no status has
// been reported yet.
func (j *Job) Status() string {
	return j.status
}

// IsExpired reports whether a TTL has been applied to the job's server-side
// record.
func (j *Job) IsExpired() bool {
	return j.expired
}

// setHash records the server-assigned hash. The hash is set at most once.
func (j *Job) setHash(hash string) {
	if j.hash == "" {
		j.hash = hash
	}
}
