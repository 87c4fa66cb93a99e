package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mackay-backend/lib/restyutil"
	"mackay-backend/lib/scrapers/mackay"
	"mackay-backend/lib/scrapers/vghtpe"
	"mackay-backend/lib/telemetry"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string

	telemetryShutdown = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "registrar-cli",
	Short: "registrar-cli books hospital appointments and watches doctor timetables.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(verbose)
		telemetryShutdown = telemetry.SetupOptional(cmd.Context(), "registrar-cli")
		telemetry.InstrumentPerfStats(cmd.Context())

		if verbose {
			mackay.SetRestyInstrumentOutput(
				restyutil.NewFilesystemOutput("<dev_state>/resty_telemetry/mackay"),
			)
			vghtpe.SetRestyInstrumentOutput(
				restyutil.NewFilesystemOutput("<dev_state>/resty_telemetry/vghtpe"),
			)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetryShutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enables debug logging and raw HTTP dumps.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the configuration file.")
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
