package economy

import (
	"context"
	"math"

	"github.com/Request804/DiscordbotReque/internal/storage"
)

// xpLevelFactor sets the threshold for the next level: level * xpLevelFactor.
const xpLevelFactor = 100

type Rates struct {
	MessageCoins        float64
	MessageMinWords     int
	MessageXP           int
	VoiceCoinsPerMinute float64
	VoiceXPPerMinute    int
	MilestoneStep       int
}

type Service struct {
	store *storage.Store
	rates Rates
}

func New(store *storage.Store, rates Rates) *Service {
	if rates.MilestoneStep <= 0 {
		rates.MilestoneStep = 100
	}
	return &Service{store: store, rates: rates}
}

type MessageResult struct {
	Milestone int
	LevelUps  int
	NewLevel  int
}

type VoiceResult struct {
	Coins     float64
	XP        int
	Milestone int
	LevelUps  int
	NewLevel  int
}

// RecordMessage applies the per-message accrual: the message counter always
// moves, coins only when the message carries enough words, XP at the
// configured flat rate.
func (s *Service) RecordMessage(ctx context.Context, guildID, userID string, wordCount int) (MessageResult, error) {
	var result MessageResult

	if err := s.store.IncrementMessages(ctx, guildID, userID); err != nil {
		return result, err
	}

	if s.rates.MessageXP > 0 {
		levelUps, newLevel, err := s.grantXP(ctx, guildID, userID, s.rates.MessageXP)
		if err != nil {
			return result, err
		}
		result.LevelUps = levelUps
		result.NewLevel = newLevel
	}

	if wordCount >= s.rates.MessageMinWords && s.rates.MessageCoins > 0 {
		balance, err := s.store.AddCoins(ctx, guildID, userID, s.rates.MessageCoins)
		if err != nil {
			return result, err
		}
		milestone, err := s.checkMilestone(ctx, guildID, userID, balance)
		if err != nil {
			return result, err
		}
		result.Milestone = milestone
	}

	return result, nil
}

// RecordVoice settles a finished voice session of the given whole minutes.
func (s *Service) RecordVoice(ctx context.Context, guildID, userID string, minutes int64) (VoiceResult, error) {
	var result VoiceResult
	if minutes <= 0 {
		return result, nil
	}

	if err := s.store.AddVoiceMinutes(ctx, guildID, userID, minutes); err != nil {
		return result, err
	}

	coins := float64(minutes) * s.rates.VoiceCoinsPerMinute
	if coins > 0 {
		balance, err := s.store.AddCoins(ctx, guildID, userID, coins)
		if err != nil {
			return result, err
		}
		result.Coins = coins
		milestone, err := s.checkMilestone(ctx, guildID, userID, balance)
		if err != nil {
			return result, err
		}
		result.Milestone = milestone
	}

	if gain := int(minutes) * s.rates.VoiceXPPerMinute; gain > 0 {
		levelUps, newLevel, err := s.grantXP(ctx, guildID, userID, gain)
		if err != nil {
			return result, err
		}
		result.XP = gain
		result.LevelUps = levelUps
		result.NewLevel = newLevel
	}

	return result, nil
}

// grantXP adds xp and carries any excess over the level threshold into the
// next level, so a single grant can award several levels.
func (s *Service) grantXP(ctx context.Context, guildID, userID string, amount int) (int, int, error) {
	xp, level, err := s.store.GetXP(ctx, guildID, userID)
	if err != nil {
		return 0, 0, err
	}

	xp += amount
	levelUps := 0
	for xp >= level*xpLevelFactor {
		xp -= level * xpLevelFactor
		level++
		levelUps++
	}

	if err := s.store.SetXP(ctx, guildID, userID, xp, level); err != nil {
		return 0, 0, err
	}
	return levelUps, level, nil
}

// checkMilestone reports the newly crossed balance milestone, or 0 when the
// balance is still inside the last notified step.
func (s *Service) checkMilestone(ctx context.Context, guildID, userID string, balance float64) (int, error) {
	step := s.rates.MilestoneStep
	mark := int(math.Floor(balance/float64(step))) * step
	if mark <= 0 {
		return 0, nil
	}

	last, err := s.store.GetLastMilestone(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	if mark <= last {
		return 0, nil
	}

	if err := s.store.SetLastMilestone(ctx, guildID, userID, mark); err != nil {
		return 0, err
	}
	return mark, nil
}
