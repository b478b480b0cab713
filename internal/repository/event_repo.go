package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/storage"
)

// EventRepository appends domain events to the outbox table. Appends made
// through a transaction-scoped Store commit together with the mutation they
// describe; the outbox dispatcher picks them up afterwards.
type EventRepository struct {
	q      Querier
	logger *zap.Logger
}

func (r *EventRepository) Append(ctx context.Context, e storage.DomainEvent) error {
	query := `
        INSERT INTO outbox_events (aggregate_type, aggregate_id, routing_key, payload, status)
        VALUES ($1, $2, $3, $4, 'pending')
    `
	_, err := r.q.Exec(ctx, query, e.AggregateType, e.AggregateID, e.RoutingKey, e.Payload)
	if err != nil {
		r.logger.Error("Failed to append outbox event",
			zap.String("routing_key", e.RoutingKey),
			zap.Error(err),
		)
	}
	return err
}
