// Package nats fans change events out to every server instance over NATS.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

const DefaultSubjectPrefix = "ideabox.changes"

type Notifier struct {
	nc     *nats.Conn
	prefix string
}

func Connect(url, name string) (*Notifier, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return New(nc, DefaultSubjectPrefix), nil
}

func New(nc *nats.Conn, prefix string) *Notifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Notifier{nc: nc, prefix: prefix}
}

func (n *Notifier) subject(kind domain.ChangeKind) string {
	return n.prefix + "." + string(kind)
}

// Publish does not wait for delivery; NATS publishes are fire and forget.
func (n *Notifier) Publish(ctx context.Context, event domain.ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := n.nc.Publish(n.subject(event.Kind), data); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

func (n *Notifier) Subscribe(ctx context.Context, handler ports.ChangeHandler) (func(), error) {
	sub, err := n.nc.Subscribe(n.prefix+".>", func(msg *nats.Msg) {
		var event domain.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping malformed change event", "subject", msg.Subject, "error", err)
			return
		}
		handler(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", n.prefix, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			slog.Warn("failed to unsubscribe from change events", "error", err)
		}
	}, nil
}

func (n *Notifier) Close() error {
	if n.nc.IsClosed() {
		return nil
	}
	return n.nc.Drain()
}
