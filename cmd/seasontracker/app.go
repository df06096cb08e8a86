package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mantonx/seasontracker/internal/config"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/server"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

// defaultConfigPath is tried when neither --config nor the environment names a file.
const defaultConfigPath = "seasontracker.yaml"

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "seasontracker",
		Usage:   "Track the TV shows members are watching",
		Version: server.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Sources: cli.EnvVars(config.EnvConfigPath),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			memberCommand(),
			configCommand(),
		},
	}
}

// loadConfig builds a config manager from the --config flag, falling back
// to defaultConfigPath when it exists.
func loadConfig(cmd *cli.Command) (*config.ConfigManager, error) {
	path := cmd.String("config")
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cm := config.NewConfigManager()
	if err := cm.LoadConfig(path); err != nil {
		return nil, err
	}

	cfg := cm.GetConfig()
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
	return cm, nil
}

// withDatabase loads the configuration, opens and migrates the database, and
// runs fn with it.
func withDatabase(cmd *cli.Command, fn func(*gorm.DB) error) error {
	cm, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(cm.GetConfig().Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	if err := database.Migrate(db, database.AllModels()...); err != nil {
		return err
	}
	return fn(db)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withDatabase(cmd, func(*gorm.DB) error {
				fmt.Fprintf(cmd.Root().Writer, "migrated %d models\n", len(database.AllModels()))
				return nil
			})
		},
	}
}
