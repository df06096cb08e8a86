package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mantonx/seasontracker/internal/config"
	"github.com/urfave/cli/v3"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and write configuration files",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the effective configuration (defaults plus environment) to the --config path",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: initConfig,
			},
		},
	}
}

func initConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	cm := config.NewConfigManager()
	if err := cm.LoadConfig(""); err != nil {
		return err
	}
	if err := cm.SaveConfigAs(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", path)
	return nil
}
