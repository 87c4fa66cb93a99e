package commands

import (
	"log/slog"
	"time"

	"mackay-backend/cmd/registrar-cli/utils"
	"mackay-backend/lib/serviceutil"
	"mackay-backend/services/registrar"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var clearState *bool

func init() {
	clearState = stateCmd.Flags().Bool("clear", false, "Resets the cooldown state, re-enabling registration runs.")
	rootCmd.AddCommand(stateCmd)
}

func fmtStateTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

var stateCmd = &cobra.Command{
	Use:   "state [--clear]",
	Short: "Shows the cooldown state left behind by previous runs.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		store := registrar.NewStateStore(cfg.StateFile)

		if *clearState {
			if err := store.Save(registrar.CooldownState{}); err != nil {
				serviceutil.Fatal("failed to clear state", err)
			}
			slog.Info("cooldown state cleared", "path", cfg.StateFile)
			return
		}

		state := store.Load()
		t := utils.NewTable()
		t.AppendHeader(table.Row{"field", "value"})
		t.AppendRow(table.Row{"pause until", fmtStateTime(state.PauseUntil)})
		t.AppendRow(table.Row{"last notification", fmtStateTime(state.LastNotificationTime)})
		t.AppendRow(table.Row{"notification count", state.NotificationCount})
		t.AppendRow(table.Row{"last check", fmtStateTime(state.LastCheck)})
		t.Render()
	},
}
