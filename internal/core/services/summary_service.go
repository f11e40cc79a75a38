package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type summaryService struct {
	store ports.Store
}

func NewSummaryService(store ports.Store) ports.SummaryService {
	return &summaryService{store: store}
}

// ReconcileAll resets every idea's stored vote count to the size of its
// recorded vote set.
func (s *summaryService) ReconcileAll(ctx context.Context) error {
	ids, err := s.store.Ideas().ListIDs(ctx)
	if err != nil {
		return storeError(fmt.Errorf("failed to fetch all ideas: %w", err))
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(ids))

	for _, id := range ids {
		wg.Add(1)
		go func(ideaID uuid.UUID) {
			defer wg.Done()
			if err := s.store.Ideas().ReconcileVoteCount(ctx, ideaID); err != nil {
				errChan <- fmt.Errorf("failed to reconcile idea %s: %w", ideaID, err)
			}
		}(id)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return storeError(err)
		}
	}

	slog.Info("vote counts reconciled", "ideas", len(ids))
	return nil
}
