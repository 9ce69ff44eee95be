package commands

import (
	"context"
	"fmt"
	"log/slog"
	"ticketwatch/internal/components/chrono"
	"ticketwatch/internal/components/telemetry"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

const report_watch_check = "watch.check"

func newWatchCmd(flags *cliFlags) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch [--schedule <cron spec>]",
		Short: "Checks the orders now and then again on every tick of a cron schedule until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ok, err := resolveConfig(*flags)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			if !ok {
				return cmd.Help()
			}
			if schedule != "" {
				cfg.Watch.Schedule = schedule
			}
			_, err = cron.ParseStandard(cfg.Watch.Schedule)
			if err != nil {
				return fmt.Errorf("invalid schedule '%s': %w", cfg.Watch.Schedule, err)
			}

			ctx := cmd.Context()
			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			telemetry.InstrumentPerfStats(ctx, app.tel)

			check := func() {
				_, err := app.check(ctx)
				if err != nil {
					app.tel.ReportWarning(report_watch_check, err)
				}
			}
			check()

			cronner := chrono.NewStandardCron(app.tel, app.clock.Location())
			err = cronner.Cron(cfg.Watch.Schedule, check)
			if err != nil {
				return err
			}
			slog.Info("watching orders", "schedule", cfg.Watch.Schedule, "orders", cfg.OrderIds)
			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			cronner.Stop(stopCtx)
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", fmt.Sprintf("Cron schedule of the checks. (default \"%s\")", defaultSchedule))
	return cmd
}
