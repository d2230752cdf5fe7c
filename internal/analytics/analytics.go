package analytics

import (
	"context"
	"time"

	"github.com/Request804/DiscordbotReque/internal/storage"
)

// Service composes read-only report views from the store. Nothing is
// cached; every call re-reads.
type Service struct {
	store      *storage.Store
	warnWindow time.Duration
}

func New(store *storage.Store, warnWindow time.Duration) *Service {
	if warnWindow <= 0 {
		warnWindow = 7 * 24 * time.Hour
	}
	return &Service{store: store, warnWindow: warnWindow}
}

type Profile struct {
	Balance      float64
	Rank         int
	Level        int
	XP           int
	Messages     int64
	VoiceMinutes int64
}

func (s *Service) Profile(ctx context.Context, guildID, userID string) (Profile, error) {
	balance, err := s.store.GetBalance(ctx, guildID, userID)
	if err != nil {
		return Profile{}, err
	}
	rank, err := s.store.RankByBalance(ctx, guildID, userID)
	if err != nil {
		return Profile{}, err
	}
	xp, level, err := s.store.GetXP(ctx, guildID, userID)
	if err != nil {
		return Profile{}, err
	}
	messages, err := s.store.GetMessageCount(ctx, guildID, userID)
	if err != nil {
		return Profile{}, err
	}
	minutes, err := s.store.GetVoiceMinutes(ctx, guildID, userID)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		Balance:      balance,
		Rank:         rank,
		Level:        level,
		XP:           xp,
		Messages:     messages,
		VoiceMinutes: minutes,
	}, nil
}

func (s *Service) Leaderboard(ctx context.Context, guildID string, limit int) ([]storage.LeaderboardEntry, error) {
	return s.store.TopBalances(ctx, guildID, limit)
}

type ModeratorView struct {
	Messages    int64
	ActiveWarns int
	TotalWarns  int
	RecentWarns []storage.Warn
}

// ModeratorView gathers what the moderator dashboard shows about a user:
// counts plus the most recent active warn reasons.
func (s *Service) ModeratorView(ctx context.Context, guildID, userID string, recentLimit int) (ModeratorView, error) {
	messages, err := s.store.GetMessageCount(ctx, guildID, userID)
	if err != nil {
		return ModeratorView{}, err
	}
	since := time.Now().Add(-s.warnWindow)
	active, err := s.store.CountActiveWarns(ctx, guildID, userID, since)
	if err != nil {
		return ModeratorView{}, err
	}
	total, err := s.store.CountWarns(ctx, guildID, userID)
	if err != nil {
		return ModeratorView{}, err
	}
	recent, err := s.store.ListActiveWarns(ctx, guildID, userID, since, recentLimit)
	if err != nil {
		return ModeratorView{}, err
	}

	return ModeratorView{
		Messages:    messages,
		ActiveWarns: active,
		TotalWarns:  total,
		RecentWarns: recent,
	}, nil
}
