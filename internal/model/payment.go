package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type Tender string

const (
	TenderCash        Tender = "cash"
	TenderDebit       Tender = "debit"
	TenderCredit      Tender = "credit"
	TenderPix         Tender = "pix"
	TenderBankSlip    Tender = "bank_slip"
	TenderStoreCredit Tender = "store_credit"
	TenderVoucher     Tender = "voucher"
	TenderTransfer    Tender = "transfer"
	TenderCheck       Tender = "check"
)

// Tenders lists every bucket in display order.
var Tenders = []Tender{
	TenderCash, TenderDebit, TenderCredit, TenderPix, TenderBankSlip,
	TenderStoreCredit, TenderVoucher, TenderTransfer, TenderCheck,
}

// PaymentDetails is the fixed set of tender buckets for one order. Stored as
// a single JSONB column.
type PaymentDetails struct {
	Cash        decimal.Decimal `json:"cash"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Pix         decimal.Decimal `json:"pix"`
	BankSlip    decimal.Decimal `json:"bank_slip"`
	StoreCredit decimal.Decimal `json:"store_credit"`
	Voucher     decimal.Decimal `json:"voucher"`
	Transfer    decimal.Decimal `json:"transfer"`
	Check       decimal.Decimal `json:"check"`
}

// Valid reports whether t names one of the known tender buckets.
func (t Tender) Valid() bool {
	for _, known := range Tenders {
		if t == known {
			return true
		}
	}
	return false
}

func (p *PaymentDetails) Get(t Tender) decimal.Decimal {
	if b := p.bucket(t); b != nil {
		return *b
	}
	return decimal.Zero
}

func (p *PaymentDetails) Set(t Tender, amount decimal.Decimal) {
	if b := p.bucket(t); b != nil {
		*b = amount
	}
}

func (p *PaymentDetails) bucket(t Tender) *decimal.Decimal {
	switch t {
	case TenderCash:
		return &p.Cash
	case TenderDebit:
		return &p.Debit
	case TenderCredit:
		return &p.Credit
	case TenderPix:
		return &p.Pix
	case TenderBankSlip:
		return &p.BankSlip
	case TenderStoreCredit:
		return &p.StoreCredit
	case TenderVoucher:
		return &p.Voucher
	case TenderTransfer:
		return &p.Transfer
	case TenderCheck:
		return &p.Check
	}
	return nil
}

func (p PaymentDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PaymentDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = PaymentDetails{}
		return nil
	}
	return fmt.Errorf("unsupported payment details column type %T", src)
}
