package availability

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"mackay-backend/lib/scrapers/vghtpe"
	"mackay-backend/services/registrar"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

// Notifier reports newly opened slots to a human.
type Notifier interface {
	NotifyOpenSlots(ctx context.Context, slots []vghtpe.Slot, now time.Time) error
}

type EmailNotifier struct {
	smtp       registrar.SmtpConfig
	recipients []string
}

func NewEmailNotifier(cfg registrar.SmtpConfig, recipients string) EmailNotifier {
	return EmailNotifier{
		smtp:       cfg,
		recipients: registrar.SplitRecipients(recipients),
	}
}

func openSlotsSubject(slots []vghtpe.Slot) string {
	var doctors []string
	seen := map[string]bool{}
	for _, slot := range slots {
		if !seen[slot.Doctor] {
			seen[slot.Doctor] = true
			doctors = append(doctors, slot.Doctor)
		}
	}
	return fmt.Sprintf(
		"醫師可掛號通知 - %s (%d個時段)",
		strings.Join(doctors, ", "),
		len(slots),
	)
}

func openSlotsBody(slots []vghtpe.Slot, now time.Time) string {
	var b strings.Builder
	b.WriteString("您好，\n\n監測到以下醫師時段可以掛號，詳細資訊如下：\n\n")

	var doctors []string
	grouped := map[string][]vghtpe.Slot{}
	for _, slot := range slots {
		if _, ok := grouped[slot.Doctor]; !ok {
			doctors = append(doctors, slot.Doctor)
		}
		grouped[slot.Doctor] = append(grouped[slot.Doctor], slot)
	}

	for i, doctor := range doctors {
		group := grouped[doctor]

		fmt.Fprintf(&b, "【%s】\n", doctor)
		fmt.Fprintf(&b, "掛號連結: %s\n\n", group[0].Url)
		b.WriteString("可掛號時段:\n")
		for j, slot := range group {
			fmt.Fprintf(&b, "  %d. %s (%s) %s\n", j+1, slot.Date, slot.WeekDay, slot.TimeSlot)
			fmt.Fprintf(&b, "     診間: %s | 診別: %s\n", slot.Room, slot.ClinicType)
		}
		if i < len(doctors)-1 {
			b.WriteString("\n" + strings.Repeat("=", 50) + "\n\n")
		}
	}

	fmt.Fprintf(&b, "\n監測時間: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString("請盡快前往掛號，以免向隅！\n\n")
	b.WriteString("（此郵件由自動監控程序發送）")

	return b.String()
}

func (n EmailNotifier) NotifyOpenSlots(ctx context.Context, slots []vghtpe.Slot, now time.Time) error {
	_, span := tracer.Start(ctx, "notifier:NotifyOpenSlots")
	defer span.End()

	if n.smtp.Server == "" {
		span.SetStatus(codes.Error, "no smtp server configured")
		return fmt.Errorf("no smtp server configured, cannot notify")
	}
	if len(n.recipients) == 0 {
		span.SetStatus(codes.Error, "no recipients configured")
		return fmt.Errorf("no notification recipients configured")
	}

	mail := email.NewEmail()
	mail.From = n.smtp.Sender
	mail.To = n.recipients
	mail.Subject = openSlotsSubject(slots)
	mail.Text = []byte(openSlotsBody(slots, now))

	err := mail.Send(
		n.smtp.Addr(),
		smtp.PlainAuth("", n.smtp.Username, n.smtp.Password, n.smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(n.smtp.Addr(), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	return nil
}
