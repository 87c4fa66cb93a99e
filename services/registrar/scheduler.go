package registrar

import (
	"context"
	"log/slog"
	"time"

	"mackay-backend/lib/scrapers/mackay"
	"mackay-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Clock abstracts wall time and delays so scheduler tests can run
// without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time {
	return timezone.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Submitter is the slice of the portal client the scheduler drives.
// *mackay.Client satisfies it.
type Submitter interface {
	Initialize(ctx context.Context) error
	Register(ctx context.Context, req mackay.Request) (string, error)
}

type RunStatus int

const (
	// a prior booking's cooldown is still active, nothing was attempted
	RunSkipped RunStatus = iota
	// session bootstrap failed, nothing was attempted
	RunSessionFailed
	// every candidate in every round came back non-success
	RunExhausted
	// a slot was booked
	RunSucceeded
)

func (s RunStatus) String() string {
	switch s {
	case RunSkipped:
		return "skipped"
	case RunSessionFailed:
		return "session_failed"
	case RunExhausted:
		return "exhausted"
	case RunSucceeded:
		return "succeeded"
	}
	return "unknown"
}

// Report summarizes one scheduler run.
type Report struct {
	Status   RunStatus
	Attempts int
	// set when Status is RunSucceeded
	Slot    CandidateSlot
	Outcome mackay.Outcome
}

// Scheduler drives the ordered-retry loop over candidate slots:
// cooldown guard, session bootstrap, one submission and one
// classification per candidate, first success wins.
type Scheduler struct {
	client   Submitter
	notifier Notifier
	state    *StateStore
	clock    Clock
	opts     Options
}

func NewScheduler(client Submitter, notifier Notifier, state *StateStore, opts Options) *Scheduler {
	return &Scheduler{
		client:   client,
		notifier: notifier,
		state:    state,
		clock:    realClock{},
		opts:     opts.withDefaults(),
	}
}

// SetClock replaces the wall clock, for tests.
func (s *Scheduler) SetClock(clock Clock) {
	s.clock = clock
}

// Run executes one registration pass. The returned error is non-nil
// only for session bootstrap failure; every other condition is
// expressed through the report status.
func (s *Scheduler) Run(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "scheduler:Run")
	defer span.End()

	if s.state.ShouldSkip(s.clock.Now()) {
		span.SetAttributes(attribute.String("result", "skipped"))
		return Report{Status: RunSkipped}, nil
	}

	if err := s.client.Initialize(ctx); err != nil {
		slog.Error("session bootstrap failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "session bootstrap failed")
		return Report{Status: RunSessionFailed}, err
	}

	report := Report{}
	for round := 0; round < s.opts.MaxRounds; round++ {
		if round > 0 {
			slog.Info("starting next round", "round", round+1, "max_rounds", s.opts.MaxRounds)
			s.clock.Sleep(ctx, s.opts.RoundDelay)
		}

		for _, slot := range s.opts.Slots {
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, "run cancelled")
				return report, ctx.Err()
			}

			report.Attempts++
			outcome := s.attempt(ctx, slot, report.Attempts)

			if outcome.Kind == mackay.OutcomeSuccess {
				s.handleSuccess(ctx, slot, outcome)
				report.Status = RunSucceeded
				report.Slot = slot
				report.Outcome = outcome
				span.SetAttributes(attribute.Int("attempts", report.Attempts))
				return report, nil
			}

			s.clock.Sleep(ctx, s.opts.AttemptDelay)
		}
	}

	s.touchLastCheck()

	report.Status = RunExhausted
	span.SetAttributes(attribute.Int("attempts", report.Attempts))
	return report, nil
}

// attempt submits one registration request and classifies the
// response. A transport failure is folded into an Error outcome so
// the loop always advances to the next candidate.
func (s *Scheduler) attempt(ctx context.Context, slot CandidateSlot, n int) mackay.Outcome {
	slog.Info("attempting registration",
		"attempt", n,
		"date", slot.Date,
		"doctor", slot.DoctorName,
		"session", slot.Session.Label(),
	)

	rawHtml, err := s.client.Register(ctx, mackay.Request{
		Date:       slot.Date,
		Session:    slot.Session,
		DeptCode:   slot.DeptCode,
		DoctorCode: slot.DoctorCode,
		IdNumber:   s.opts.Identity.IdNumber,
		Birthday:   s.opts.Identity.Birthday,
	})
	if err != nil {
		slog.Warn("registration request failed", "slot", slot.String(), "err", err)
		return mackay.Outcome{Kind: mackay.OutcomeError, Reason: err.Error()}
	}

	outcome := mackay.Classify(rawHtml)
	switch outcome.Kind {
	case mackay.OutcomeSuccess:
		slog.Info("slot booked", "slot", slot.String(), "appointment_date", outcome.AppointmentDate)
	case mackay.OutcomeFull:
		slog.Info("slot full", "slot", slot.String())
	case mackay.OutcomeError:
		slog.Warn("registration rejected", "slot", slot.String(), "reason", outcome.Reason)
	default:
		slog.Warn("unclassifiable response", "slot", slot.String(), "excerpt", outcome.RawExcerpt)
	}
	return outcome
}

// handleSuccess notifies the operator and arms the cooldown. The
// cooldown is set even when notification fails: the booking exists on
// the hospital side regardless, and re-attempting it would be worse
// than a missed email.
func (s *Scheduler) handleSuccess(ctx context.Context, slot CandidateSlot, outcome mackay.Outcome) {
	now := s.clock.Now()

	notified := true
	err := s.notifier.NotifySuccess(ctx, Booking{
		Slot:    slot,
		Outcome: outcome,
		Time:    now,
	})
	if err != nil {
		slog.Error("failed to send booking notification", "err", err)
		notified = false
	}

	state := s.state.Load()
	pauseUntil := now.Add(s.opts.CooldownWindow)
	state.PauseUntil = &pauseUntil
	if notified {
		state.LastNotificationTime = &now
		state.NotificationCount++
	}
	if err := s.state.Save(state); err != nil {
		slog.Warn("failed to persist cooldown state", "err", err)
		return
	}
	slog.Info("cooldown armed", "pause_until", pauseUntil.Format(time.RFC3339))
}

func (s *Scheduler) touchLastCheck() {
	state := s.state.Load()
	now := s.clock.Now()
	state.LastCheck = &now
	if err := s.state.Save(state); err != nil {
		slog.Warn("failed to persist last check time", "err", err)
	}
}
