// Package main утилита администратора: проверка доступа напрямую по базе,
// публикация событий инвалидации, миграции и выпуск тестовых токенов.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/course-entitlement/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "entitlementctl",
		Short:         "Administrative tool for the course entitlement service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to the service config")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		cmdCheck(opts),
		cmdInvalidate(opts),
		cmdMigrate(opts),
		cmdToken(opts),
	)
	return root
}

func (o *options) load() (*config.Config, error) {
	if o.configPath == "" {
		return nil, fmt.Errorf("config path is empty: pass --config or set CONFIG_PATH")
	}
	return config.Load(o.configPath)
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
