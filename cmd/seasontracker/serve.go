package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mantonx/seasontracker/internal/config"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/server"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch-config",
				Usage: "Reload the configuration file when it changes",
				Value: true,
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cm, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cm.AddWatcher(config.LogLevelWatcher)

	if cmd.Bool("watch-config") && cm.Path() != "" {
		if err := cm.WatchFile(ctx, config.DefaultDebounce); err != nil {
			logger.Warn("configuration hot reload disabled", "error", err)
		}
	}

	cfg := cm.GetConfig()
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	srv, err := server.New(cfg, db)
	if err != nil {
		return err
	}

	logger.Info("seasontracker starting", "version", server.Version, "addr", srv.Addr())
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("seasontracker stopped")
	return nil
}
