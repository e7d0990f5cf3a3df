package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/course-entitlement/internal/cache"
	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/debug"
	"github.com/magabrotheeeer/course-entitlement/internal/http/handlers/access/view"
	"github.com/magabrotheeeer/course-entitlement/internal/services/entitlement"
	"github.com/magabrotheeeer/course-entitlement/internal/storage/repository"
)

// cmdCheck считает решение напрямую по базе, минуя кеш.
func cmdCheck(opts *options) *cobra.Command {
	var userID, courseID string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate access for a user and course against the database, bypassing the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := repository.New(ctx, cfg.StorageConnectionString)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := entitlement.New(opts.logger(), db, cache.Nop{}, nil, nil, entitlement.Config{
				DecisionTTL: cfg.DecisionTTL,
				LoadTimeout: cfg.LoadTimeout,
			})
			ins, err := svc.Inspect(ctx, userID, courseID)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(debug.Report{
				UserID:             userID,
				CourseID:           courseID,
				Decision:           view.NewDecision(ins.Decision),
				SubscriptionStatus: ins.SubscriptionStatus,
				EvaluatedAt:        ins.EvaluatedAt,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&courseID, "course", "", "course id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}
