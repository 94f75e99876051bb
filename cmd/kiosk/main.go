package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/vanvalenlab/kiosk-client-go/internal/config"
	"github.com/vanvalenlab/kiosk-client-go/internal/logging"
)

var version = "dev"

func main() {
	if err := app().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func app() *cli.Command {
	return &cli.Command{
		Name:    "kiosk",
		Version: version,
		Usage:   "Submit images to a DeepCell Kiosk deployment and track the job",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Kiosk frontend base URL",
				Sources: cli.EnvVars("KIOSK_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("KIOSK_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			typesCmd(),
		},
	}
}

// loadConfig merges flag overrides over the viper config and builds the
// logger.
func loadConfig(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if v := cmd.String("base-url"); v != "" {
		cfg.Kiosk.BaseURL = v
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.Server.LogLevel = v
	}

	logger, err := logging.New(cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
