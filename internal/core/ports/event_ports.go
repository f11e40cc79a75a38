package ports

import (
	"context"

	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type ChangePublisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

type ChangeHandler func(ctx context.Context, event domain.ChangeEvent)

type ChangeSubscriber interface {
	// Subscribe registers handler until the returned function is called.
	Subscribe(ctx context.Context, handler ChangeHandler) (func(), error)
}

type ChangeNotifier interface {
	ChangePublisher
	ChangeSubscriber
	Close() error
}
