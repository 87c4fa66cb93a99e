package commands

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"strings"

	"mackay-backend/cmd/registrar-cli/utils"
	"mackay-backend/lib/serviceutil"
	"mackay-backend/lib/timezone"
	"mackay-backend/services/registrar"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jordan-wright/email"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// mask keeps just enough of a value to recognize it in a report that
// may end up in CI logs.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 7 {
		return s[:3] + "***" + s[len(s)-4:]
	}
	return "***"
}

type verifyCheck struct {
	name   string
	masked string
	ok     bool
	detail string
}

func runChecks(cfg Config) []verifyCheck {
	identityErr := cfg.Identity.Validate()
	identityDetail := "ok"
	if identityErr != nil {
		identityDetail = identityErr.Error()
	}

	recipients := registrar.SplitRecipients(cfg.Recipients)

	checks := []verifyCheck{
		{
			name:   "id number",
			masked: mask(cfg.Identity.IdNumber),
			ok:     identityErr == nil,
			detail: identityDetail,
		},
		{
			name:   "birthday",
			masked: mask(cfg.Identity.Birthday),
			ok:     identityErr == nil,
			detail: identityDetail,
		},
		{
			name:   "recipients",
			masked: fmt.Sprintf("%d configured", len(recipients)),
			ok:     len(recipients) > 0,
			detail: "ok",
		},
		{
			name:   "smtp server",
			masked: mask(cfg.Smtp.Server),
			ok:     cfg.Smtp.Server != "",
			detail: "ok",
		},
		{
			name:   "smtp username",
			masked: mask(cfg.Smtp.Username),
			ok:     cfg.Smtp.Username != "",
			detail: "ok",
		},
		{
			name:   "smtp sender",
			masked: mask(cfg.Smtp.Sender),
			ok:     cfg.Smtp.Sender != "",
			detail: "ok",
		},
		{
			name:   "candidate slots",
			masked: fmt.Sprintf("%d configured", len(cfg.Slots)),
			ok:     len(cfg.Slots) > 0,
			detail: "ok",
		},
	}
	for i, c := range checks {
		if !c.ok && c.detail == "ok" {
			checks[i].detail = "missing"
		}
	}
	return checks
}

// the full, unmasked values never appear here either; the report is
// safe to deliver over email and to print in CI
func verifyReport(checks []verifyCheck) string {
	var b strings.Builder
	b.WriteString("馬偕兒童醫院掛號系統 - 配置驗證報告\n")
	fmt.Fprintf(&b, "生成時間: %s\n\n", timezone.Now().Format("2006-01-02 15:04:05"))

	allOk := true
	for _, c := range checks {
		status := "✅"
		if !c.ok {
			status = "❌"
			allOk = false
		}
		fmt.Fprintf(&b, "%s %s: %s (%s)\n", status, c.name, c.masked, c.detail)
	}

	b.WriteString("\n")
	if allOk {
		b.WriteString("所有配置檢查通過，系統已就緒。\n")
	} else {
		b.WriteString("部分配置需要檢查，請修正後重試。\n")
	}
	return b.String()
}

func emailReport(cfg Config, report string) error {
	recipients := registrar.SplitRecipients(cfg.Recipients)
	if cfg.Smtp.Server == "" || len(recipients) == 0 {
		return fmt.Errorf("email configuration incomplete, cannot deliver report")
	}

	mail := email.NewEmail()
	mail.From = cfg.Smtp.Sender
	mail.To = recipients[:1]
	mail.Subject = fmt.Sprintf("掛號系統配置驗證報告 - %s", timezone.Now().Format("2006-01-02"))
	mail.Text = []byte(report)

	err := mail.Send(
		cfg.Smtp.Addr(),
		smtp.PlainAuth("", cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(cfg.Smtp.Addr(), nil)
	}
	return err
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Checks the configuration and emails the report instead of logging secrets.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		checks := runChecks(cfg)

		t := utils.NewTable()
		t.AppendHeader(table.Row{"check", "value", "status"})
		allOk := true
		for _, c := range checks {
			status := "ok"
			if !c.ok {
				status = c.detail
				allOk = false
			}
			t.AppendRow(table.Row{c.name, c.masked, status})
		}
		t.Render()

		err = emailReport(cfg, verifyReport(checks))
		if err != nil {
			slog.Warn("could not email verification report", "err", err)
		}

		if !allOk {
			os.Exit(1)
		}
	},
}
