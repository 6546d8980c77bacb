package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

type conn interface {
	Publish(subject string, data []byte) error
}

var _ conn = (*nats.Conn)(nil)

// NATSPublisher encodes events as JSON on "<prefix>.<subject>".
type NATSPublisher struct {
	nc     conn
	prefix string
}

func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return newNATSPublisher(nc, prefix)
}

func newNATSPublisher(nc conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Connect dials url with reconnects enabled for the lifetime of the process.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("coinmarket-api"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return nc, nil
}

func (p *NATSPublisher) PurchaseCompleted(ctx context.Context, e PurchaseCompleted) error {
	return p.publish(ctx, SubjectPurchaseCompleted, e)
}

func (p *NATSPublisher) DepositChanged(ctx context.Context, e DepositChanged) error {
	return p.publish(ctx, SubjectDepositChanged, e)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, v any) error {
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}

	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}

	err = p.nc.Publish(full, data)
	if err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}

	return nil
}
