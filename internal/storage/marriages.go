package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Marriage struct {
	GuildID   string
	UserID    string
	PartnerID string
	MarriedAt time.Time
}

func (s *Store) GetMarriage(ctx context.Context, guildID, userID string) (Marriage, bool, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT guild_id, user_id, partner_id, married_at
		FROM marriages WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var marriage Marriage
	var married int64
	err := row.Scan(&marriage.GuildID, &marriage.UserID, &marriage.PartnerID, &married)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Marriage{}, false, nil
		}
		return Marriage{}, false, err
	}
	marriage.MarriedAt = time.Unix(married, 0)
	return marriage, true, nil
}

// CreateMarriage writes both symmetric rows in one transaction so a lookup
// by either party always finds the other.
func (s *Store) CreateMarriage(ctx context.Context, guildID, userID, partnerID string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := s.rebind(`
		INSERT INTO marriages (guild_id, user_id, partner_id, married_at)
		VALUES (?, ?, ?, ?)
	`)
	if _, err = tx.ExecContext(ctx, query, guildID, userID, partnerID, at.Unix()); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, query, guildID, partnerID, userID, at.Unix()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}
