package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go-points/internal/models"

	"github.com/nats-io/nats.go"
)

const (
	SubjectCharged = "points.charged"
	SubjectUsed    = "points.used"
)

type Publisher interface {
	Publish(ctx context.Context, event models.PointEvent) error
}

type conn interface {
	Publish(subject string, data []byte) error
}

type NatsPublisher struct {
	nc conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// Connect returns nil without error when url is empty; callers fall back
// to NopPublisher.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}

	nc, err := nats.Connect(url, nats.Name("point-service"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

func Subject(txType models.TransactionType) (string, error) {
	switch txType {
	case models.TransactionTypeCharge:
		return SubjectCharged, nil
	case models.TransactionTypeUse:
		return SubjectUsed, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", txType)
	}
}

func (p *NatsPublisher) Publish(ctx context.Context, event models.PointEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, err := Subject(event.Type)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode point event: %w", err)
	}
	return p.nc.Publish(subject, data)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.PointEvent) error { return nil }
