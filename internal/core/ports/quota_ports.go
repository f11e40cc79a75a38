package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type QuotaService interface {
	// Now is the tracker's clock in its configured location.
	Now() time.Time
	CurrentQuarter(now time.Time) string
	LoadOrInitialize(ctx context.Context, userID uuid.UUID) (*domain.QuotaRecord, error)
	Remaining(ctx context.Context, userID uuid.UUID) (int, error)
	QuarterInfo(ctx context.Context, userID uuid.UUID) (*domain.QuarterInfo, error)
	// Info builds quota figures for a known number of used votes.
	Info(now time.Time, used int) *domain.QuarterInfo
	// Consume returns the votes used once the vote being recorded lands.
	Consume(ctx context.Context, tx Tx, userID uuid.UUID, quarter string) (int, error)
	// Release returns the votes used after the removed vote.
	Release(ctx context.Context, tx Tx, userID uuid.UUID, quarter string) (int, error)
}
