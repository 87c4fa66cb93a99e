package commands

import (
	"log/slog"
	"time"

	"mackay-backend/cmd/registrar-cli/utils"
	"mackay-backend/lib/scrapers/mackay"
	"mackay-backend/lib/serviceutil"
	"mackay-backend/services/registrar"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one registration pass over the configured candidate slots.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if err := cfg.Identity.Validate(); err != nil {
			serviceutil.Fatal("invalid identity config", err)
		}
		if len(cfg.Slots) == 0 {
			slog.Warn("no candidate slots configured, nothing to do")
			return
		}

		client, err := mackay.NewClient(mackay.ClientOptions{BaseUrl: cfg.BaseUrl})
		if err != nil {
			serviceutil.Fatal("failed to create portal client", err)
		}

		scheduler := registrar.NewScheduler(
			client,
			registrar.NewEmailNotifier(cfg.Smtp, cfg.Recipients),
			registrar.NewStateStore(cfg.StateFile),
			registrar.Options{
				Slots:          cfg.Slots,
				Identity:       cfg.Identity,
				Smtp:           cfg.Smtp,
				Recipients:     cfg.Recipients,
				MaxRounds:      cfg.MaxRounds,
				AttemptDelay:   time.Duration(cfg.AttemptDelaySeconds) * time.Second,
				RoundDelay:     time.Duration(cfg.RoundDelaySeconds) * time.Second,
				CooldownWindow: time.Duration(cfg.CooldownHours) * time.Hour,
			},
		)

		report, err := scheduler.Run(cmd.Context())
		if err != nil {
			serviceutil.Fatal("registration run failed", err)
		}

		slog.Info("run finished",
			"status", report.Status.String(),
			"attempts", report.Attempts,
		)
		if report.Status == registrar.RunSucceeded {
			t := utils.NewTable()
			t.AppendHeader(table.Row{"field", "value"})
			t.AppendRow(table.Row{"date", report.Outcome.AppointmentDate})
			t.AppendRow(table.Row{"department", report.Outcome.Department})
			t.AppendRow(table.Row{"doctor", report.Outcome.Doctor})
			t.AppendRow(table.Row{"session", report.Slot.Session.Label()})
			t.AppendRow(table.Row{"status", report.Outcome.StatusText})
			t.Render()
		}
	},
}
