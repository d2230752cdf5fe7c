package storage

import (
	"context"
	"time"
)

type Warn struct {
	ID          int64
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
	CreatedAt   time.Time
	Expired     bool
}

func (s *Store) AddWarn(ctx context.Context, warn Warn) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO warns (guild_id, user_id, moderator_id, reason, created_at, expired)
		VALUES (?, ?, ?, ?, ?, ?)
	`), warn.GuildID, warn.UserID, warn.ModeratorID, warn.Reason, warn.CreatedAt.Unix(), boolToInt(warn.Expired))
	return err
}

// CountActiveWarns counts non-expired warns issued after since.
func (s *Store) CountActiveWarns(ctx context.Context, guildID, userID string, since time.Time) (int, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM warns
		WHERE guild_id = ? AND user_id = ? AND created_at > ? AND expired = 0
	`), guildID, userID, since.Unix())

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CountWarns(ctx context.Context, guildID, userID string) (int, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM warns WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ListActiveWarns(ctx context.Context, guildID, userID string, since time.Time, limit int) ([]Warn, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, guild_id, user_id, moderator_id, reason, created_at, expired
		FROM warns
		WHERE guild_id = ? AND user_id = ? AND created_at > ? AND expired = 0
		ORDER BY created_at DESC
		LIMIT ?
	`), guildID, userID, since.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warns []Warn
	for rows.Next() {
		var warn Warn
		var created int64
		var expired int
		if err := rows.Scan(&warn.ID, &warn.GuildID, &warn.UserID, &warn.ModeratorID, &warn.Reason, &created, &expired); err != nil {
			return nil, err
		}
		warn.CreatedAt = time.Unix(created, 0)
		warn.Expired = expired == 1
		warns = append(warns, warn)
	}
	return warns, rows.Err()
}

// ExpireWarns marks all non-expired warns created before the cutoff as
// expired and reports how many rows changed. Safe to run repeatedly.
func (s *Store) ExpireWarns(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE warns SET expired = 1 WHERE created_at < ? AND expired = 0
	`), before.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
