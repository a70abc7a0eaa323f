package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MovementTypeSale    = "sale"
	MovementTypeRestock = "restock_cancellation"
)

// StockMovement is the audit row written in the same transaction as every
// stock mutation.
type StockMovement struct {
	ID             string          `db:"id"`
	ProductID      string          `db:"product_id"`
	MovementType   string          `db:"movement_type"`
	QuantityChange decimal.Decimal `db:"quantity_change"`
	QuantityBefore decimal.Decimal `db:"quantity_before"`
	QuantityAfter  decimal.Decimal `db:"quantity_after"`
	OrderID        *string         `db:"order_id"`
	CreatedBy      *string         `db:"created_by"`
	CreatedAt      time.Time       `db:"created_at"`
}
