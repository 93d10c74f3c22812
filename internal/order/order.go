package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation errors for money calculations. Malformed input is rejected,
// never clamped.
var (
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	ErrNegativePrice   = errors.New("unit_price must be >= 0")
	ErrInvalidDiscount = errors.New("discount_percent must be within [0, 100]")
	ErrNegativeTax     = errors.New("tax_percent must be >= 0")
)

// Line is a single item on an order.
type Line struct {
	ItemID          uuid.UUID
	ItemName        string
	Quantity        int32
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
}

// Order is a full order snapshot as the order service sends it. TotalPrice
// is the server-side figure and wins over anything computed locally.
type Order struct {
	ID           uuid.UUID
	BranchID     string
	Number       int32
	Type         string
	Status       string
	Note         string
	CancelReason string
	PaymentType  string
	TotalPrice   decimal.Decimal
	IsPaid       bool
	CreatedAt    time.Time
	Lines        []Line
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// LineTotal computes quantity * unit_price * (1 - discount/100) * (1 + tax/100).
func LineTotal(l Line) (decimal.Decimal, error) {
	if l.Quantity <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	if l.UnitPrice.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}
	if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
		return decimal.Zero, ErrInvalidDiscount
	}
	if l.TaxPercent.IsNegative() {
		return decimal.Zero, ErrNegativeTax
	}

	qty := decimal.NewFromInt32(l.Quantity)
	afterDiscount := one.Sub(l.DiscountPercent.Div(hundred))
	afterTax := one.Add(l.TaxPercent.Div(hundred))
	return l.UnitPrice.Mul(qty).Mul(afterDiscount).Mul(afterTax), nil
}

// ComputedTotal sums the line totals. It is a display-time cross-check; the
// server-supplied TotalPrice stays authoritative.
func ComputedTotal(o Order) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, l := range o.Lines {
		lt, err := LineTotal(l)
		if err != nil {
			return decimal.Zero, fmt.Errorf("lines[%d]: %w", i, err)
		}
		total = total.Add(lt)
	}
	return total, nil
}

// DisplayTotal returns the server total when the service supplied one,
// falling back to the local computation.
func DisplayTotal(o Order) decimal.Decimal {
	if !o.TotalPrice.IsZero() {
		return o.TotalPrice
	}
	if t, err := ComputedTotal(o); err == nil {
		return t
	}
	return o.TotalPrice
}

// Clone deep copies the order; Lines is the only reference field.
func (o Order) Clone() Order {
	c := o
	if o.Lines != nil {
		c.Lines = append([]Line(nil), o.Lines...)
	}
	return c
}
