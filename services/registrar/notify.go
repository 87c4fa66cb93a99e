package registrar

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"mackay-backend/lib/scrapers/mackay"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

// Booking is what gets reported to the operator after a successful
// registration.
type Booking struct {
	Slot    CandidateSlot
	Outcome mackay.Outcome
	Time    time.Time
}

// Notifier delivers a successful booking to a human. The scheduler
// treats delivery failure as non-fatal: the booking exists on the
// hospital side whether or not anyone was told.
type Notifier interface {
	NotifySuccess(ctx context.Context, booking Booking) error
}

type EmailNotifier struct {
	smtp       SmtpConfig
	recipients []string
}

func NewEmailNotifier(cfg SmtpConfig, recipients string) EmailNotifier {
	return EmailNotifier{
		smtp:       cfg,
		recipients: SplitRecipients(recipients),
	}
}

// SplitRecipients parses a comma-delimited recipient list, trimming
// surrounding whitespace and dropping empty entries.
func SplitRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func successSubject(booking Booking) string {
	return fmt.Sprintf("馬偕兒童醫院掛號成功 - %s", booking.Time.Format("2006-01-02 15:04:05"))
}

func successBody(booking Booking) string {
	outcome := booking.Outcome
	return fmt.Sprintf(`恭喜！馬偕兒童醫院掛號成功！

詳細資訊：
掛號狀態: 成功
看診日期: %s
看診科別: %s
看診醫師: %s
結果訊息: %s

掛號時間: %s
請記得準時就診！

---
此為自動掛號系統通知`,
		orNA(outcome.AppointmentDate),
		orNA(outcome.Department),
		orNA(outcome.Doctor),
		orNA(outcome.StatusText),
		booking.Time.Format("2006-01-02 15:04:05"),
	)
}

func (n EmailNotifier) NotifySuccess(ctx context.Context, booking Booking) error {
	_, span := tracer.Start(ctx, "notifier:NotifySuccess")
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
	mail.Subject = successSubject(booking)
	mail.Text = []byte(successBody(booking))

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
