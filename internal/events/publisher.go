// Package events publishes product lifecycle events to the message bus.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow/product-service/internal/model"
	"github.com/stockflow/product-service/internal/platform/broker"
)

const eventTypeProductCreated = "ProductCreated"

type productCreatedEvent struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Payload   productCreatedPayload `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
}

type productCreatedPayload struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	BranchID    string   `json:"branch_id"`
	Name        string   `json:"name"`
	HasVariants bool     `json:"has_variants"`
	VariantIDs  []string `json:"variant_ids,omitempty"`
}

type Publisher struct {
	producer *broker.Producer
}

func NewPublisher(producer *broker.Producer) *Publisher {
	return &Publisher{producer: producer}
}

// ProductCreated announces a committed product (and its variants, if any) to
// downstream consumers.
func (p *Publisher) ProductCreated(ctx context.Context, parent *model.Product, variants []model.Product) error {
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}

	event := productCreatedEvent{
		EventID:   uuid.New().String(),
		EventType: eventTypeProductCreated,
		Payload: productCreatedPayload{
			ID:          parent.ID,
			UserID:      parent.UserID,
			BranchID:    parent.BranchID,
			Name:        parent.Name,
			HasVariants: len(variants) > 0,
			VariantIDs:  ids,
		},
		Timestamp: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, []byte(parent.ID), value)
}
