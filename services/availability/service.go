// Package availability polls doctor timetable pages and emails the
// operator when a watched doctor opens up bookable slots.
package availability

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"mackay-backend/lib/scrapers/vghtpe"
	"mackay-backend/lib/timezone"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// a fuzzy-match floor that tolerates spacing and honorific variants
// in the rendered doctor name
const doctorNameSimilarity = 0.9

type WatchedDoctor struct {
	// optional, an empty name watches every doctor on the page
	Name string `json:"name"`
	Link string `json:"link"`
}

type Options struct {
	Doctors []WatchedDoctor
	// defaults to 5 minutes
	Interval time.Duration
	// how long a still-open slot stays silenced after an
	// announcement, defaults to 24 hours
	ReannounceWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = time.Minute * 5
	}
	if o.ReannounceWindow <= 0 {
		o.ReannounceWindow = time.Hour * 24
	}
	return o
}

type Service struct {
	scraper  *vghtpe.Client
	store    SeenStore
	notifier Notifier
	options  Options
}

func NewService(database *sql.DB, notifier Notifier, options Options) Service {
	return Service{
		scraper:  vghtpe.NewClient(),
		store:    NewSeenStore(database),
		notifier: notifier,
		options:  options.withDefaults(),
	}
}

func matchesDoctor(rendered, configured string) bool {
	if configured == "" {
		return true
	}
	if strings.Contains(rendered, configured) {
		return true
	}
	return matchr.JaroWinkler(rendered, configured, false) >= doctorNameSimilarity
}

// checkOnce polls every watched timetable and announces slots that are
// outside their silence window. Fetch failures skip the one doctor and
// keep the poll going.
func (s Service) checkOnce(ctx context.Context, now time.Time) error {
	ctx, span := tracer.Start(ctx, "checkOnce")
	defer span.End()

	var announce []vghtpe.Slot
	for _, doctor := range s.options.Doctors {
		slots, err := s.scraper.FetchOpenSlots(ctx, doctor.Link)
		if err != nil {
			slog.WarnContext(ctx, "fetch timetable", "link", doctor.Link, "err", err)
			span.RecordError(err)
			continue
		}
		for _, slot := range slots {
			if !matchesDoctor(slot.Doctor, doctor.Name) {
				continue
			}
			ok, err := s.store.ShouldAnnounce(ctx, slot.Key(), now, s.options.ReannounceWindow)
			if err != nil {
				return err
			}
			if ok {
				announce = append(announce, slot)
			}
		}
	}

	span.SetAttributes(attribute.Int("announced", len(announce)))
	if len(announce) == 0 {
		return nil
	}

	err := s.notifier.NotifyOpenSlots(ctx, announce, now)
	if err != nil {
		span.SetStatus(codes.Error, "failed to notify")
		return err
	}
	for _, slot := range announce {
		err := s.store.MarkAnnounced(ctx, slot.Key(), now)
		if err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "announced open slots", "count", len(announce))
	return nil
}

// Run polls until ctx is cancelled.
func (s Service) Run(ctx context.Context) {
	slog.InfoContext(ctx, "watching timetables",
		"doctors", len(s.options.Doctors),
		"interval", s.options.Interval,
	)

	ticker := time.NewTicker(s.options.Interval)
	defer ticker.Stop()

	for {
		err := s.checkOnce(ctx, timezone.Now())
		if err != nil {
			slog.ErrorContext(ctx, "timetable check", "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
