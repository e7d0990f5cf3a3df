package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/course-entitlement/internal/cache"
	"github.com/magabrotheeeer/course-entitlement/internal/rabbitmq"
)

var errGlobalNotConfirmed = errors.New("neither --user nor --course given: pass --all to drop every cached decision")

// cmdInvalidate публикует событие инвалидации в очередь сервиса.
func cmdInvalidate(opts *options) *cobra.Command {
	var (
		ev  rabbitmq.InvalidationEvent
		all bool
	)

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Publish an invalidation event for a user, a course, a pair or everything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope := cache.ScopeOf(ev.UserID, ev.CourseID)
			if scope == cache.ScopeGlobal && !all {
				return errGlobalNotConfirmed
			}
			ev.All = scope == cache.ScopeGlobal
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.RabbitMQURL == "" {
				return fmt.Errorf("rabbitmq_url is not configured")
			}

			conn, err := rabbitmq.Connect(cmd.Context(), cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
			if err != nil {
				return err
			}
			defer conn.Close()

			// очередь объявляет сервис, утилите нужен только обменник
			topology := rabbitmq.NewTopology(cfg.Exchange, "")
			ch, err := rabbitmq.SetupChannel(conn, topology)
			if err != nil {
				return err
			}
			defer ch.Close()

			if err := rabbitmq.PublishInvalidation(ch, topology, ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s invalidation to %s\n", scope, cfg.Exchange)
			return nil
		},
	}
	cmd.Flags().StringVar(&ev.UserID, "user", "", "user id")
	cmd.Flags().StringVar(&ev.CourseID, "course", "", "course id")
	cmd.Flags().StringVar(&ev.Reason, "reason", "manual", "reason recorded with the event")
	cmd.Flags().BoolVar(&all, "all", false, "confirm a global invalidation")
	return cmd
}
