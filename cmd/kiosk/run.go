package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/vanvalenlab/kiosk-client-go/internal/archive"
	"github.com/vanvalenlab/kiosk-client-go/internal/kiosk"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Upload a file, queue a job, and wait for the terminal status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Image file to process; directories are zipped first",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "job-type",
				Aliases:  []string{"t"},
				Usage:    "Job type to queue (see `kiosk types`)",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "ttl",
				Usage: "Seconds before the server drops the job record (0 uses the configured default)",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "Delay between status polls (0 uses the configured default)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			client := kiosk.New(&cfg.Kiosk, logger)

			path := cmd.String("file")
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				zipPath, err := archive.ZipDirectory(path)
				if err != nil {
					return fmt.Errorf("zip %s: %w", path, err)
				}
				logger.Info("zipped directory for upload", zap.String("archive", zipPath))
				path = zipPath
			}

			ttl := cfg.Kiosk.TTL
			if v := int(cmd.Int("ttl")); v > 0 {
				ttl = v
			}
			interval := time.Duration(cfg.Kiosk.PollInterval) * time.Second
			if v := cmd.Duration("poll-interval"); v > 0 {
				interval = v
			}

			job := kiosk.NewJob(cmd.String("job-type"))
			if err := client.Create(ctx, job, path); err != nil {
				return err
			}
			if job.Hash() == "" {
				return fmt.Errorf("kiosk did not assign a job hash")
			}
			fmt.Printf("queued %s job %s\n", job.JobType(), job.Hash())

			if err := client.Expire(ctx, job, ttl); err != nil {
				return err
			}

			final, err := client.WaitForFinalStatus(ctx, job, interval)
			if err != nil {
				return err
			}

			switch final {
			case cfg.Kiosk.FailedStatus:
				reason, err := client.ErrorReason(ctx, job)
				if err != nil {
					return err
				}
				if reason == "" {
					reason = "no reason reported"
				}
				fmt.Printf("job %s: %s\n", final, reason)
			case cfg.Kiosk.DoneStatus:
				output, err := client.OutputPath(ctx, job)
				if err != nil {
					return err
				}
				if output == "" {
					output = "no output location reported"
				}
				fmt.Printf("job %s: %s\n", final, output)
			}
			return nil
		},
	}
}
