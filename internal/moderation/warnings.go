package moderation

import (
	"context"
	"time"

	"github.com/Request804/DiscordbotReque/internal/storage"

	"go.uber.org/zap"
)

type Policy struct {
	MaxActiveWarns int
	WarnWindow     time.Duration
	SweepInterval  time.Duration
	AutobanReason  string
}

func DefaultPolicy() Policy {
	return Policy{
		MaxActiveWarns: 5,
		WarnWindow:     7 * 24 * time.Hour,
		SweepInterval:  time.Hour,
		AutobanReason:  "Autoban: 5 active warnings",
	}
}

type Service struct {
	store  *storage.Store
	policy Policy
	logger *zap.Logger
}

func New(store *storage.Store, policy Policy, logger *zap.Logger) *Service {
	if policy.MaxActiveWarns <= 0 {
		policy.MaxActiveWarns = 5
	}
	if policy.WarnWindow <= 0 {
		policy.WarnWindow = 7 * 24 * time.Hour
	}
	if policy.SweepInterval <= 0 {
		policy.SweepInterval = time.Hour
	}
	if policy.AutobanReason == "" {
		policy.AutobanReason = DefaultPolicy().AutobanReason
	}
	return &Service{store: store, policy: policy, logger: logger}
}

func (s *Service) Policy() Policy {
	return s.policy
}

type WarnResult struct {
	ActiveCount int
	Autoban     bool
}

// IssueWarn records the warn and reports whether the active count inside
// the rolling window has reached the autoban threshold. The ban itself is
// the caller's side effect.
func (s *Service) IssueWarn(ctx context.Context, guildID, userID, moderatorID, reason string) (WarnResult, error) {
	now := time.Now()
	err := s.store.AddWarn(ctx, storage.Warn{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Reason:      reason,
		CreatedAt:   now,
	})
	if err != nil {
		return WarnResult{}, err
	}

	count, err := s.store.CountActiveWarns(ctx, guildID, userID, now.Add(-s.policy.WarnWindow))
	if err != nil {
		return WarnResult{}, err
	}

	return WarnResult{
		ActiveCount: count,
		Autoban:     count >= s.policy.MaxActiveWarns,
	}, nil
}

func (s *Service) CountActiveWarns(ctx context.Context, guildID, userID string) (int, error) {
	return s.store.CountActiveWarns(ctx, guildID, userID, time.Now().Add(-s.policy.WarnWindow))
}

func (s *Service) ListActiveWarns(ctx context.Context, guildID, userID string, limit int) ([]storage.Warn, error) {
	return s.store.ListActiveWarns(ctx, guildID, userID, time.Now().Add(-s.policy.WarnWindow), limit)
}

// RunExpirySweep flips warns older than the window to expired. Idempotent:
// rows already expired are untouched.
func (s *Service) RunExpirySweep(ctx context.Context) (int64, error) {
	return s.store.ExpireWarns(ctx, time.Now().Add(-s.policy.WarnWindow))
}

// StartSweeper sweeps once right away, then on the configured interval
// until the context is cancelled. Sweep failures are logged and the loop
// keeps going.
func (s *Service) StartSweeper(ctx context.Context) {
	go func() {
		s.sweep(ctx)
		ticker := time.NewTicker(s.policy.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Service) sweep(ctx context.Context) {
	expired, err := s.RunExpirySweep(ctx)
	if err != nil {
		s.logger.Warn("warn expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		s.logger.Info("warns expired", zap.Int64("count", expired))
	}
}
