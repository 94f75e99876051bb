package e2e

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanvalenlab/kiosk-client-go/internal/config"
	"github.com/vanvalenlab/kiosk-client-go/internal/kiosk"
	"github.com/vanvalenlab/kiosk-client-go/internal/kioskd"
)

// startKioskd serves an in-memory kioskd on a random local port and returns
// its base URL.
func startKioskd(t *testing.T) string {
	t.Helper()

	cfg := &config.KioskdConfig{
		StepDelayMS:  2,
		JobTypes:     []string{"segmentation", "broken"},
		FailJobTypes: []string{"broken"},
	}
	srv := kioskd.New(cfg, kioskd.NewMemoryStore(), nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go func() {
		_ = srv.App().Listener(ln)
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown(time.Second)
	})

	return "http://" + ln.Addr().String()
}

func newClient(t *testing.T, baseURL string) *kiosk.Client {
	t.Helper()
	return kiosk.New(&config.KioskConfig{BaseURL: baseURL}, nil)
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cells.png")
	if err := os.WriteFile(path, []byte("fake image bytes"), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func TestJobSucceeds(t *testing.T) {
	client := newClient(t, startKioskd(t))
	ctx := context.Background()

	job := kiosk.NewJob("segmentation")
	if err := client.Create(ctx, job, writeImage(t)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if job.Hash() == "" {
		t.Fatal("expected a job hash after create")
	}

	if err := client.Expire(ctx, job, 60); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if !job.IsExpired() {
		t.Error("expected the job to be expired")
	}

	final, err := client.WaitForFinalStatus(ctx, job, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForFinalStatus failed: %v", err)
	}
	if final != kiosk.StatusDone {
		t.Fatalf("expected final status %q, got %q", kiosk.StatusDone, final)
	}

	output, err := client.OutputPath(ctx, job)
	if err != nil {
		t.Fatalf("OutputPath failed: %v", err)
	}
	if output == "" {
		t.Error("expected an output location for a finished job")
	}
}

func TestJobFails(t *testing.T) {
	client := newClient(t, startKioskd(t))
	ctx := context.Background()

	job := kiosk.NewJob("broken")
	if err := client.Create(ctx, job, writeImage(t)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	final, err := client.WaitForFinalStatus(ctx, job, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForFinalStatus failed: %v", err)
	}
	if final != kiosk.StatusFailed {
		t.Fatalf("expected final status %q, got %q", kiosk.StatusFailed, final)
	}

	reason, err := client.ErrorReason(ctx, job)
	if err != nil {
		t.Fatalf("ErrorReason failed: %v", err)
	}
	if reason == "" {
		t.Error("expected a failure reason for a failed job")
	}
}

func TestJobTypes(t *testing.T) {
	client := newClient(t, startKioskd(t))

	types, err := client.JobTypes(context.Background())
	if err != nil {
		t.Fatalf("JobTypes failed: %v", err)
	}
	if len(types) != 2 {
		t.Errorf("expected 2 job types, got %v", types)
	}
}

func TestExpireUnknownHash(t *testing.T) {
	client := newClient(t, startKioskd(t))
	ctx := context.Background()

	job := kiosk.NewJob("segmentation")
	if err := client.Create(ctx, job, writeImage(t)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// expire with a tiny TTL, let the record vanish, then expire again
	if err := client.Expire(ctx, job, 1); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if err := client.Expire(ctx, job, 60); err == nil {
		t.Error("expected an error expiring a dropped record")
	}
}
