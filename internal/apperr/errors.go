package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies a domain failure so transport layers can map it to a
// status code without string matching.
type Kind int

const (
	KindValidation Kind = iota
	KindPolicy
	KindPaymentMismatch
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPolicy:
		return "policy"
	case KindPaymentMismatch:
		return "payment_mismatch"
	case KindConsistency:
		return "consistency"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Is lets sentinel comparisons match on Kind plus message so callers can use
// errors.Is with the exported sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Policy(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPolicy, Message: fmt.Sprintf(format, args...)}
}

func Consistency(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConsistency, Message: fmt.Sprintf(format, args...)}
}

// PaymentMismatch reports the signed difference between tendered and owed:
// negative delta is a shortfall, positive an overage.
func PaymentMismatch(delta decimal.Decimal) *Error {
	return &Error{
		Kind:    KindPaymentMismatch,
		Message: fmt.Sprintf("payment does not match order total (difference %s)", delta.StringFixed(2)),
	}
}

// KindOf extracts the Kind from err, or ok=false for untyped errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinels for the lifecycle guards. Matched via errors.Is.
var (
	ErrOrderNotFound    = &Error{Kind: KindConsistency, Message: "order not found"}
	ErrAlreadyCompleted = &Error{Kind: KindConsistency, Message: "order already completed"}
	ErrAlreadyCancelled = &Error{Kind: KindConsistency, Message: "order already cancelled"}
	ErrNotPending       = &Error{Kind: KindConsistency, Message: "order is not pending"}
	ErrOrderLocked      = &Error{Kind: KindConsistency, Message: "order is being processed by another session"}
	ErrNoPaymentMethod  = &Error{Kind: KindPaymentMismatch, Message: "no payment method selected"}
	ErrEmptyCart        = &Error{Kind: KindValidation, Message: "cart is empty"}
)

// InsufficientStock names the offending product, both at add time and at
// completion time.
func InsufficientStock(productName string) *Error {
	return &Error{
		Kind:    KindConsistency,
		Message: fmt.Sprintf("insufficient stock for product %q", productName),
	}
}
