package ports

import "context"

type SummaryService interface {
	ReconcileAll(ctx context.Context) error
}
