package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/catalog"
	"github.com/fekuna/omnipos-order-service/pkg/broker"
	"github.com/fekuna/omnipos-order-service/pkg/logger"
	"go.uber.org/zap"
)

// CatalogListener consumes product-change events published by the product
// service and drops stale cached snapshots.
type CatalogListener struct {
	consumer *broker.KafkaConsumer
	reader   catalog.Reader
	logger   logger.ZapLogger
}

func NewCatalogListener(consumer *broker.KafkaConsumer, reader catalog.Reader, logger logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		consumer: consumer,
		reader:   reader,
		logger:   logger,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting Catalog Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Catalog Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type ProductChangedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (l *CatalogListener) processMessage(ctx context.Context, value []byte) {
	var event ProductChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal catalog event", zap.Error(err))
		return
	}

	switch event.EventType {
	case "ProductUpdated", "ProductDeleted", "StockAdjusted":
	default:
		return
	}

	l.logger.Debug("Invalidating cached product", zap.String("product_id", event.ProductID))
	l.reader.InvalidateProduct(ctx, event.ProductID)
}
