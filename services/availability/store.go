package availability

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SeenStore remembers when a slot was last announced so a persistent
// opening does not generate an email on every poll.
type SeenStore struct {
	db *sql.DB
}

func NewSeenStore(database *sql.DB) SeenStore {
	return SeenStore{db: database}
}

// ShouldAnnounce reports whether the slot key has not been announced
// within the window ending at now.
func (s SeenStore) ShouldAnnounce(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`select last_notified from seen_slot where key = ?`,
		key,
	)
	var lastNotified int64
	err := row.Scan(&lastNotified)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !now.Before(time.Unix(lastNotified, 0).Add(window)), nil
}

func (s SeenStore) MarkAnnounced(ctx context.Context, key string, now time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into seen_slot (key, last_notified) values (?, ?)
		on conflict (key) do update set last_notified = excluded.last_notified`,
		key,
		now.Unix(),
	)
	return err
}
