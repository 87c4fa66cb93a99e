package commands

import (
	"log/slog"
	"os"
	"strconv"

	"mackay-backend/lib/configutil"
	"mackay-backend/services/availability"
	"mackay-backend/services/registrar"
)

type WatchConfig struct {
	Doctors               []availability.WatchedDoctor `json:"doctors"`
	IntervalSeconds       int                          `json:"interval_seconds"`
	ReannounceWindowHours int                          `json:"reannounce_window_hours"`
	DbPath                string                       `json:"db_path"`
}

type Config struct {
	BaseUrl  string                    `json:"base_url"`
	Identity registrar.Identity        `json:"identity"`
	Slots    []registrar.CandidateSlot `json:"slots"`

	Smtp       registrar.SmtpConfig `json:"smtp"`
	Recipients string               `json:"recipients"`

	MaxRounds           int `json:"max_rounds"`
	AttemptDelaySeconds int `json:"attempt_delay_seconds"`
	RoundDelaySeconds   int `json:"round_delay_seconds"`
	CooldownHours       int `json:"cooldown_hours"`

	StateFile string `json:"state_file"`

	Watch WatchConfig `json:"watch"`
}

// loadConfig reads the config file and layers environment variables on
// top, so secrets can live in CI secrets instead of the file.
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if os.IsNotExist(err) {
		slog.Info("no config file found, using environment only", "path", configPath)
	}

	cfg.Identity.IdNumber = configutil.Env("MACKAY_ID_NUMBER", cfg.Identity.IdNumber)
	cfg.Identity.Birthday = configutil.Env("MACKAY_BIRTHDAY", cfg.Identity.Birthday)
	cfg.Recipients = configutil.Env("MACKAY_NOTIFICATION_EMAIL", cfg.Recipients)

	cfg.Smtp.Server = configutil.Env("SMTP_SERVER", cfg.Smtp.Server)
	cfg.Smtp.Username = configutil.Env("SMTP_USERNAME", cfg.Smtp.Username)
	cfg.Smtp.Password = configutil.Env("SMTP_PASSWORD", cfg.Smtp.Password)
	cfg.Smtp.Sender = configutil.Env("SMTP_SENDER", cfg.Smtp.Sender)
	if port, err := strconv.Atoi(configutil.Env("SMTP_PORT", "")); err == nil {
		cfg.Smtp.Port = port
	}

	if cfg.BaseUrl == "" {
		cfg.BaseUrl = "https://www.mmh.org.tw/child"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "mackay_state.json"
	}
	if cfg.Smtp.Port == 0 {
		cfg.Smtp.Port = 587
	}
	if cfg.Smtp.Sender == "" {
		cfg.Smtp.Sender = cfg.Smtp.Username
	}
	if cfg.Watch.DbPath == "" {
		cfg.Watch.DbPath = "watch.db"
	}

	return cfg, nil
}
