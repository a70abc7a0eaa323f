package dto

import (
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/shopspring/decimal"
)

type LineInput struct {
	ProductID   string           `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"` // edited price; nil keeps the catalog price
	Observation string           `json:"observation"`
}

type CartInput struct {
	Lines      []LineInput     `json:"lines"`
	Discount   decimal.Decimal `json:"discount"`
	Freight    decimal.Decimal `json:"freight"`
	OtherCosts decimal.Decimal `json:"other_costs"`
}

type CartTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// ProposeDiscountInput edits exactly one of the three discount views; the
// usecase re-derives the other two.
type ProposeDiscountInput struct {
	Cart        CartInput        `json:"cart"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Percent     *decimal.Decimal `json:"percent,omitempty"`
	TargetTotal *decimal.Decimal `json:"target_total,omitempty"`
}

type ConfirmDiscountInput struct {
	Cart   CartInput       `json:"cart"`
	Amount decimal.Decimal `json:"amount"`
	Token  string          `json:"token"`
}

type AutoFillPaymentInput struct {
	Total    decimal.Decimal      `json:"total"`
	Payments model.PaymentDetails `json:"payments"`
	Tender   model.Tender         `json:"tender"`
}

type AutoFillPaymentResult struct {
	Payments  model.PaymentDetails `json:"payments"`
	TotalPaid decimal.Decimal      `json:"total_paid"`
	Remaining decimal.Decimal      `json:"remaining"`
}

type ValidatePaymentInput struct {
	Total    decimal.Decimal      `json:"total"`
	Payments model.PaymentDetails `json:"payments"`
	AsBudget bool                 `json:"as_budget"`
}

type SubmitOrderInput struct {
	ID               string               `json:"id"` // non-empty re-submits an editable order
	SellerID         string               `json:"seller_id"`
	Cart             CartInput            `json:"cart"`
	ManagerToken     string               `json:"manager_token"` // required when the discount exceeds the auth threshold
	Payments         model.PaymentDetails `json:"payments"`
	Installments     int                  `json:"installments"`
	Observation      string               `json:"observation"`
	DeliveryAddress  string               `json:"delivery_address"`
	CustomerEmail    string               `json:"customer_email"`
	PurchaseOrderRef string               `json:"purchase_order_ref"`
	AsBudget         bool                 `json:"as_budget"`
}

type OrderFilters struct {
	Status   string
	SellerID string
	Page     int
	PageSize int
}
