package storage

import (
	"context"
	"database/sql"
	"errors"
)

func (s *Store) IncrementMessages(ctx context.Context, guildID, userID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO messages (guild_id, user_id, count) VALUES (?, ?, 1)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET count = count + 1
	`), guildID, userID)
	return err
}

func (s *Store) GetMessageCount(ctx context.Context, guildID, userID string) (int64, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT count FROM messages WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var count int64
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// AddCoins credits the balance and returns the new total.
func (s *Store) AddCoins(ctx context.Context, guildID, userID string, amount float64) (float64, error) {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO coins (guild_id, user_id, balance) VALUES (?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET balance = balance + excluded.balance
	`), guildID, userID, amount)
	if err != nil {
		return 0, err
	}
	return s.GetBalance(ctx, guildID, userID)
}

func (s *Store) GetBalance(ctx context.Context, guildID, userID string) (float64, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT balance FROM coins WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var balance float64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// GetXP returns the stored xp and level, defaulting to level 1 when the
// user has no row yet.
func (s *Store) GetXP(ctx context.Context, guildID, userID string) (int, int, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT xp, level FROM xp WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var xp, level int
	if err := row.Scan(&xp, &level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 1, nil
		}
		return 0, 0, err
	}
	return xp, level, nil
}

func (s *Store) SetXP(ctx context.Context, guildID, userID string, xp, level int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO xp (guild_id, user_id, xp, level) VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET xp = excluded.xp, level = excluded.level
	`), guildID, userID, xp, level)
	return err
}

func (s *Store) AddVoiceMinutes(ctx context.Context, guildID, userID string, minutes int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO voice_time (guild_id, user_id, minutes) VALUES (?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET minutes = minutes + excluded.minutes
	`), guildID, userID, minutes)
	return err
}

func (s *Store) GetVoiceMinutes(ctx context.Context, guildID, userID string) (int64, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT minutes FROM voice_time WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var minutes int64
	if err := row.Scan(&minutes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return minutes, nil
}

func (s *Store) GetLastMilestone(ctx context.Context, guildID, userID string) (int, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT last_milestone FROM coin_notifications WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var milestone int
	if err := row.Scan(&milestone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return milestone, nil
}

func (s *Store) SetLastMilestone(ctx context.Context, guildID, userID string, milestone int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO coin_notifications (guild_id, user_id, last_milestone) VALUES (?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET last_milestone = excluded.last_milestone
	`), guildID, userID, milestone)
	return err
}

type LeaderboardEntry struct {
	UserID  string
	Balance float64
	Level   int
}

// TopBalances returns the highest balances in the guild, joined with the
// level each user has reached.
func (s *Store) TopBalances(ctx context.Context, guildID string, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT c.user_id, c.balance, COALESCE(x.level, 1)
		FROM coins c
		LEFT JOIN xp x ON x.guild_id = c.guild_id AND x.user_id = c.user_id
		WHERE c.guild_id = ?
		ORDER BY c.balance DESC
		LIMIT ?
	`), guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var entry LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.Balance, &entry.Level); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RankByBalance places the user on the guild leaderboard. Users without a
// balance row rank after everyone who has one.
func (s *Store) RankByBalance(ctx context.Context, guildID, userID string) (int, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT balance FROM coins WHERE guild_id = ? AND user_id = ?
	`), guildID, userID)

	var balance float64
	err := row.Scan(&balance)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		var total int
		row := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM coins WHERE guild_id = ?`), guildID)
		if err := row.Scan(&total); err != nil {
			return 0, err
		}
		return total + 1, nil
	}

	var higher int
	row = s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM coins WHERE guild_id = ? AND balance > ?
	`), guildID, balance)
	if err := row.Scan(&higher); err != nil {
		return 0, err
	}
	return higher + 1, nil
}
