package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type QuotaConfig struct {
	VotesPerQuarter int
	Location        *time.Location
	Clock           func() time.Time
}

// quotaService derives every quota figure from the votes recorded for the
// current quarter, so entering a new quarter starts each user from zero
// without rewriting anything.
type quotaService struct {
	store ports.Store
	total int
	loc   *time.Location
	clock func() time.Time
}

func NewQuotaService(store ports.Store, cfg QuotaConfig) ports.QuotaService {
	if cfg.VotesPerQuarter <= 0 {
		cfg.VotesPerQuarter = domain.DefaultVotesPerQuarter
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &quotaService{
		store: store,
		total: cfg.VotesPerQuarter,
		loc:   cfg.Location,
		clock: cfg.Clock,
	}
}

func (s *quotaService) Now() time.Time {
	return s.clock().In(s.loc)
}

func (s *quotaService) CurrentQuarter(now time.Time) string {
	return domain.CurrentQuarter(now.In(s.loc))
}

func (s *quotaService) LoadOrInitialize(ctx context.Context, userID uuid.UUID) (*domain.QuotaRecord, error) {
	return s.loadAt(ctx, userID, s.Now())
}

func (s *quotaService) loadAt(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.QuotaRecord, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrNotAuthenticated
	}

	quarter := s.CurrentQuarter(now)
	used, err := s.store.Votes().CountByUser(ctx, userID, quarter)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to load quota: %w", err))
	}

	return &domain.QuotaRecord{
		UserID:    userID,
		Quarter:   quarter,
		VotesUsed: used,
		Total:     s.total,
	}, nil
}

func (s *quotaService) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	record, err := s.LoadOrInitialize(ctx, userID)
	if err != nil {
		return 0, err
	}
	return record.Remaining(), nil
}

func (s *quotaService) QuarterInfo(ctx context.Context, userID uuid.UUID) (*domain.QuarterInfo, error) {
	now := s.Now()
	record, err := s.loadAt(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return s.Info(now, record.VotesUsed), nil
}

func (s *quotaService) Info(now time.Time, used int) *domain.QuarterInfo {
	now = now.In(s.loc)
	record := domain.QuotaRecord{Quarter: s.CurrentQuarter(now), VotesUsed: used, Total: s.total}
	next := domain.NextQuarterStart(now)
	return &domain.QuarterInfo{
		CurrentQuarter:   record.Quarter,
		QuarterStart:     domain.QuarterStart(now),
		NextQuarterStart: next,
		VotesUsed:        min(max(used, 0), s.total),
		VotesRemaining:   record.Remaining(),
		TotalVotes:       s.total,
		ResetsIn:         humanize.RelTime(next, now, "ago", "from now"),
	}
}

// Consume must run inside the ledger transaction that records the vote: the
// vote row written afterwards is what uses up the slot.
func (s *quotaService) Consume(ctx context.Context, tx ports.Tx, userID uuid.UUID, quarter string) (int, error) {
	used, err := tx.Votes().CountByUser(ctx, userID, quarter)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	if used >= s.total {
		return used, domain.ErrQuotaExhausted
	}
	return used + 1, nil
}

// Release runs after the ledger row was removed in the same transaction and
// checks that a slot was actually freed.
func (s *quotaService) Release(ctx context.Context, tx ports.Tx, userID uuid.UUID, quarter string) (int, error) {
	used, err := tx.Votes().CountByUser(ctx, userID, quarter)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	if used >= s.total {
		return used, fmt.Errorf("quota release left %d of %d votes used", used, s.total)
	}
	return used, nil
}
