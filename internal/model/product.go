package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Code          string          `db:"code" json:"code"`
	Name          string          `db:"name" json:"name"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	StockQuantity decimal.Decimal `db:"stock_quantity" json:"stock_quantity"`
	Unit          string          `db:"unit" json:"unit"`
	IsActive      bool            `db:"is_active" json:"is_active"`
}
