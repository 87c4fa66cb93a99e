package commands

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mackay-backend/lib/serviceutil"
	"mackay-backend/services/availability"
	"mackay-backend/services/availability/db"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Polls doctor timetables and emails when watched slots open up.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if len(cfg.Watch.Doctors) == 0 {
			serviceutil.Fatal("no watched doctors configured", fmt.Errorf("watch.doctors is empty"))
		}

		sqlite, err := sql.Open("sqlite", cfg.Watch.DbPath)
		if err != nil {
			serviceutil.Fatal("failed to open watch db", err)
		}
		defer sqlite.Close()
		_, err = sqlite.Exec(db.Schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			serviceutil.Fatal("failed to apply watch db schema", err)
		}

		service := availability.NewService(
			sqlite,
			availability.NewEmailNotifier(cfg.Smtp, cfg.Recipients),
			availability.Options{
				Doctors:          cfg.Watch.Doctors,
				Interval:         time.Duration(cfg.Watch.IntervalSeconds) * time.Second,
				ReannounceWindow: time.Duration(cfg.Watch.ReannounceWindowHours) * time.Hour,
			},
		)
		service.Run(cmd.Context())
	},
}
