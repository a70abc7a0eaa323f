package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCompleted = "OrderCompleted"
	EventOrderCancelled = "OrderCancelled"
)

// EventPublisher is satisfied by broker.KafkaProducer.
type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID       string             `json:"id"`
	SellerID string             `json:"seller_id"`
	Status   string             `json:"status"`
	Total    decimal.Decimal    `json:"total"`
	Items    []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func PublishOrderEvent(ctx context.Context, publisher EventPublisher, eventType string, ord *model.Order) error {
	items := make([]OrderItemPayload, len(ord.Lines))
	for i, line := range ord.Lines {
		items[i] = OrderItemPayload{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}

	event := OrderEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload: OrderPayload{
			ID:       ord.ID,
			SellerID: ord.SellerID,
			Status:   ord.Status.String(),
			Total:    ord.Total,
			Items:    items,
		},
		Timestamp: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, []byte(ord.ID), value)
}
