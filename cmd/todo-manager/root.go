package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"todo-manager/internal/config"
	"todo-manager/internal/database"
	"todo-manager/internal/logging"
	"todo-manager/internal/session"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "todo-manager",
		Short: "Personal task manager backend",
		Long: `A personal task manager: users register, sign in and manage their own
tasks with due dates, priorities, categories and reminders.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a YAML config file (overrides CONFIG_FILE)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	return cmd
}

// load reads the configuration and builds the logger.
func (o *rootOptions) load() (*config.Config, *log.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadConfigFile(o.configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *log.Logger) (*database.DatabasePool, error) {
	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg, logging.GormLogger(logger)))
	if err != nil {
		return nil, err
	}

	if err := pool.Migrate(ctx); err != nil {
		return nil, errors.Join(err, pool.Close())
	}

	logger.Info("database ready", "driver", cfg.Database.Driver, "dsn", cfg.RedactedDatabaseDSN())
	return pool, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (session.Store, error) {
	if !cfg.Redis.Enabled {
		logger.Warn("redis disabled, sessions are kept in memory and lost on restart")
		return session.NewMemoryStore(), nil
	}

	redisStore := session.NewRedisStore(session.RedisConfigFrom(cfg))
	if err := redisStore.Health(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("connect to redis at %s: %w", cfg.GetRedisAddr(), err), redisStore.Close())
	}

	logger.Info("session store ready", "backend", "redis", "addr", cfg.GetRedisAddr())
	return session.NewGuardedStore(redisStore, session.DefaultBreakerConfig()), nil
}
