// Package local delivers change events to subscribers in the same process.
package local

import (
	"context"
	"errors"
	"sync"

	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

var ErrClosed = errors.New("notifier closed")

type Notifier struct {
	mu       sync.RWMutex
	handlers map[int]ports.ChangeHandler
	nextID   int
	closed   bool
}

func NewNotifier() *Notifier {
	return &Notifier{handlers: map[int]ports.ChangeHandler{}}
}

// Publish calls every handler before returning.
func (n *Notifier) Publish(ctx context.Context, event domain.ChangeEvent) error {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return ErrClosed
	}
	handlers := make([]ports.ChangeHandler, 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
	return nil
}

func (n *Notifier) Subscribe(_ context.Context, handler ports.ChangeHandler) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrClosed
	}

	id := n.nextID
	n.nextID++
	n.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.handlers, id)
			n.mu.Unlock()
		})
	}, nil
}

func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.handlers = map[int]ports.ChangeHandler{}
	return nil
}
