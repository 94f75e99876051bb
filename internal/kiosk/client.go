package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vanvalenlab/kiosk-client-go/internal/config"
)

// Client drives Jobs against a kiosk deployment. It holds no per-job state;
// one Client can serve any number of Jobs sequentially.
type Client struct {
	httpClient *http.Client
	cfg        config.KioskConfig
	logger     *zap.Logger
}

var errNoHash = errors.New("job has not been queued (no hash)")

// uploadResponse is the body of a successful upload. The imageURL is
// reported by the server but never used by the client.
type uploadResponse struct {
	UploadedName string `json:"uploadedName"`
	ImageURL     string `json:"imageURL"`
}

type predictRequest struct {
	JobType      string `json:"jobType"`
	UploadedName string `json:"uploadedName"`
}

type predictResponse struct {
	Hash string `json:"hash"`
}

type hashRequest struct {
	Hash string `json:"hash"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type expireRequest struct {
	Hash     string `json:"hash"`
	ExpireIn int    `json:"expireIn"`
}

// expireResponse needs a pointer value: the server answers 0 for unknown
// hashes, which must be told apart from a missing field.
type expireResponse struct {
	Value *int64 `json:"value"`
}

type keyRequest struct {
	Hash string `json:"hash"`
	Key  string `json:"key"`
}

type valueResponse struct {
	Value string `json:"value"`
}

type jobTypesResponse struct {
	JobTypes []string `json:"jobTypes"`
}

// New creates a kiosk client. Zero-valued config fields fall back to the
// deepcell.org defaults so tests can construct a config with just a BaseURL.
func New(cfg *config.KioskConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := config.KioskConfig{}
	if cfg != nil {
		c = *cfg
	}
	applyDefaults(&c)

	return &Client{
		httpClient: &http.Client{
			// the overall timeout also bounds body reads, which
			// ResponseHeaderTimeout does not cover
			Timeout: time.Duration(c.ConnectTimeout+c.ReadTimeout) * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: time.Duration(c.ConnectTimeout) * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: time.Duration(c.ReadTimeout) * time.Second,
			},
		},
		cfg:    c,
		logger: logger.Named("kiosk_client"),
	}
}

func applyDefaults(c *config.KioskConfig) {
	if c.UploadPath == "" {
		c.UploadPath = "/api/upload"
	}
	if c.JobTypesPath == "" {
		c.JobTypesPath = "/api/jobtypes"
	}
	if c.PredictPath == "" {
		c.PredictPath = "/api/predict"
	}
	if c.StatusPath == "" {
		c.StatusPath = "/api/status"
	}
	if c.ExpirePath == "" {
		c.ExpirePath = "/api/redis/expire"
	}
	if c.RedisPath == "" {
		c.RedisPath = "/api/redis"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 15
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10
	}
	if c.FailedStatus == "" {
		c.FailedStatus = StatusFailed
	}
	if c.DoneStatus == "" {
		c.DoneStatus = StatusDone
	}
}

// Create uploads the local file and queues a job of the Job's type. On full
// success the Job's hash is set. A 200 predict response without a hash field
// leaves the hash unset without an error; a 200 upload response without an
// uploadedName is an upload failure.
func (c *Client) Create(ctx context.Context, job *Job, localPath string) error {
	uploadedName, err := c.upload(ctx, localPath)
	if err != nil {
		return err
	}

	var res predictResponse
	req := &predictRequest{JobType: job.JobType(), UploadedName: uploadedName}
	if err := c.postJSON(ctx, "predict", c.cfg.PredictPath, req, &res); err != nil {
		return err
	}

	if res.Hash != "" {
		job.setHash(res.Hash)
		c.logger.Debug("job queued",
			zap.String("jobType", job.JobType()),
			zap.String("hash", res.Hash))
	}
	return nil
}

// UpdateStatus queries the job's current status and stores it on the Job.
// A valid response without a status field resets the status to unset.
func (c *Client) UpdateStatus(ctx context.Context, job *Job) error {
	if job.Hash() == "" {
		return &TransportError{Op: "status", Err: errNoHash}
	}

	var res statusResponse
	if err := c.postJSON(ctx, "status", c.cfg.StatusPath, &hashRequest{Hash: job.Hash()}, &res); err != nil {
		return err
	}

	job.status = res.Status
	return nil
}

// HasFinalStatus reports whether the Job's stored status equals one of the
// two configured terminal values. It performs no I/O.
func (c *Client) HasFinalStatus(job *Job) bool {
	if job.Status() == "" {
		return false
	}
	return job.Status() == c.cfg.FailedStatus || job.Status() == c.cfg.DoneStatus
}

// WaitForFinalStatus polls the status endpoint until the job reaches a
// terminal status, suspending for interval between attempts. An interval of
// zero polls without suspension. Any error from a single poll aborts the
// wait. By default the loop has no deadline; a positive MaxWait config adds
// one.
func (c *Client) WaitForFinalStatus(ctx context.Context, job *Job, interval time.Duration) (string, error) {
	var deadline time.Time
	if c.cfg.MaxWait > 0 {
		deadline = time.Now().Add(time.Duration(c.cfg.MaxWait) * time.Second)
	}

	for attempt := 1; ; attempt++ {
		if err := c.UpdateStatus(ctx, job); err != nil {
			return "", err
		}

		c.logger.Debug("status poll",
			zap.Int("attempt", attempt),
			zap.String("hash", job.Hash()),
			zap.String("status", job.Status()))

		if c.HasFinalStatus(job) {
			return job.Status(), nil
		}

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return "", &TransportError{
				Op:  "status",
				Err: fmt.Errorf("no terminal status after %ds", c.cfg.MaxWait),
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Expire applies a TTL to the job's server-side record. The server answers
// with the number of records touched; zero means the hash was not found and
// is surfaced as an error.
func (c *Client) Expire(ctx context.Context, job *Job, ttlSeconds int) error {
	if job.Hash() == "" {
		return &TransportError{Op: "expire", Err: errNoHash}
	}

	var res expireResponse
	req := &expireRequest{Hash: job.Hash(), ExpireIn: ttlSeconds}
	if err := c.postJSON(ctx, "expire", c.cfg.ExpirePath, req, &res); err != nil {
		return err
	}

	if res.Value == nil || *res.Value == 0 {
		return &TransportError{
			Op:  "expire",
			Err: fmt.Errorf("hash %q not found", job.Hash()),
		}
	}

	job.expired = true
	return nil
}

// OutputPath retrieves the location of the finished job's output. It
// returns "" without an error when the server has no value for the key.
func (c *Client) OutputPath(ctx context.Context, job *Job) (string, error) {
	return c.lookup(ctx, job, "output_url")
}

// ErrorReason retrieves the failure reason of a failed job. It returns ""
// without an error when the server has no value for the key.
func (c *Client) ErrorReason(ctx context.Context, job *Job) (string, error) {
	return c.lookup(ctx, job, "reason")
}

// JobTypes lists the job types the kiosk supports.
func (c *Client) JobTypes(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+c.cfg.JobTypesPath, nil)
	if err != nil {
		return nil, &TransportError{Op: "jobtypes", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var res jobTypesResponse
	if err := c.do(req, "jobtypes", &res); err != nil {
		return nil, err
	}
	return res.JobTypes, nil
}

func (c *Client) lookup(ctx context.Context, job *Job, key string) (string, error) {
	if job.Hash() == "" {
		return "", &TransportError{Op: "redis", Err: errNoHash}
	}

	var res valueResponse
	if err := c.postJSON(ctx, "redis", c.cfg.RedisPath, &keyRequest{Hash: job.Hash(), Key: key}, &res); err != nil {
		return "", err
	}
	return res.Value, nil
}

// upload POSTs the file as a multipart body and returns the server-assigned
// storage name. Opening the file fails before any network I/O happens.
func (c *Client) upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.UploadPath, &buf)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var res uploadResponse
	if err := c.do(req, "upload", &res); err != nil {
		return "", err
	}
	if res.UploadedName == "" {
		return "", &TransportError{
			Op:  "upload",
			Err: errors.New("response missing uploadedName"),
		}
	}

	c.logger.Debug("file uploaded",
		zap.String("file", localPath),
		zap.String("uploadedName", res.UploadedName))
	return res.UploadedName, nil
}

// postJSON sends a POST request with a JSON body and decodes the response.
func (c *Client) postJSON(ctx context.Context, op, path string, body, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, op, result)
}

// do executes a request and decodes the body. The kiosk reports success
// with 200 only; anything else is a transport failure regardless of body. A
// 200 body that is not JSON is a malformed response, while valid JSON with
// missing fields decodes into zero values.
func (c *Client) do(req *http.Request, op string, result interface{}) error {
	c.logger.Debug("kiosk request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	c.logger.Debug("kiosk response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body))

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op:  op,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}
