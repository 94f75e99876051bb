package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vanvalenlab/kiosk-client-go/internal/kiosk"
)

func typesCmd() *cli.Command {
	return &cli.Command{
		Name:  "types",
		Usage: "List the job types the kiosk supports",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			client := kiosk.New(&cfg.Kiosk, logger)
			types, err := client.JobTypes(ctx)
			if err != nil {
				return err
			}
			if len(types) == 0 {
				fmt.Println("no job types reported")
				return nil
			}
			for _, t := range types {
				fmt.Println(t)
			}
			return nil
		},
	}
}
