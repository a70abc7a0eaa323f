package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusBudget    OrderStatus = "budget"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Editable reports whether the order record may still be overwritten by a
// re-submission.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusBudget || s == OrderStatusPending
}

func (s OrderStatus) String() string { return string(s) }

// OrderLine carries a denormalized snapshot of the product taken at add time,
// so later catalog edits never rewrite order history. OriginalPrice is the
// discount baseline and is never mutated after capture.
type OrderLine struct {
	ID            string          `db:"id" json:"id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	ProductID     string          `db:"product_id" json:"product_id"`
	ProductCode   string          `db:"product_code" json:"product_code"`
	ProductName   string          `db:"product_name" json:"product_name"`
	Unit          string          `db:"unit" json:"unit"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	OriginalPrice decimal.Decimal `db:"original_price" json:"original_price"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Observation   string          `db:"observation" json:"observation"`
	Position      int             `db:"position" json:"position"`
}

type Order struct {
	ID             string          `db:"id" json:"id"`
	SellerID       string          `db:"seller_id" json:"seller_id"`
	CashierID      *string         `db:"cashier_id" json:"cashier_id"`
	CashierName    string          `db:"cashier_name" json:"cashier_name"`
	Status         OrderStatus     `db:"status" json:"status"`
	Discount       decimal.Decimal `db:"discount" json:"discount"`
	Freight        decimal.Decimal `db:"freight" json:"freight"`
	OtherCosts     decimal.Decimal `db:"other_costs" json:"other_costs"`
	Total          decimal.Decimal `db:"total" json:"total"`
	Payments       PaymentDetails  `db:"payments" json:"payments"`
	Installments   int             `db:"installments" json:"installments"`
	Observation    string          `db:"observation" json:"observation"`
	DeliveryAddr   string          `db:"delivery_address" json:"delivery_address"`
	CustomerEmail  string          `db:"customer_email" json:"customer_email"`
	PurchaseOrder  string          `db:"purchase_order_ref" json:"purchase_order_ref"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at"`
	Lines          []OrderLine     `db:"-" json:"lines"`
}
