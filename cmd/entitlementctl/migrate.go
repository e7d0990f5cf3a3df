package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/course-entitlement/internal/migrations"
	"github.com/magabrotheeeer/course-entitlement/internal/storage/repository"
)

func cmdMigrate(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			db, err := repository.New(cmd.Context(), cfg.StorageConnectionString)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
