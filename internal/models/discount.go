package models

import (
	"strings"

	"github.com/dealflow/dealflow/internal/money"
)

// DiscountKind tags which variant a Discount holds.
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Discount is a tagged variant: none, a percentage of the subtotal, or a
// fixed amount. A single Value carries whichever variant is active, so a
// percentage and a fixed amount can never be set at the same time.
type Discount struct {
	Kind  DiscountKind `gorm:"size:12;not null;default:'none'" json:"kind"`
	Value float64      `gorm:"not null;default:0" json:"value"`
}

// NoDiscount returns the empty discount.
func NoDiscount() Discount { return Discount{Kind: DiscountNone} }

// PercentageDiscount returns a percentage discount; negative input clamps to 0.
func PercentageDiscount(pct float64) Discount {
	return Discount{Kind: DiscountPercentage, Value: clampNonNegative(pct)}
}

// FixedDiscount returns a fixed-amount discount; negative input clamps to 0.
func FixedDiscount(amount float64) Discount {
	return Discount{Kind: DiscountFixed, Value: clampNonNegative(amount)}
}

// ParseDiscountKind maps the form codes ("nenhum", "%", "R") and the stored
// names to a kind.
func ParseDiscountKind(s string) (DiscountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nenhum", "none":
		return DiscountNone, nil
	case "%", "percentage", "percentual":
		return DiscountPercentage, nil
	case "r", "r$", "fixed", "valor":
		return DiscountFixed, nil
	}
	return "", invalid(ErrInvalidDiscount, s)
}

// Percentage is the percentage value, 0 unless the kind is percentage.
func (d Discount) Percentage() float64 {
	if d.Kind == DiscountPercentage {
		return d.Value
	}
	return 0
}

// FixedAmount is the fixed value, 0 unless the kind is fixed.
func (d Discount) FixedAmount() float64 {
	if d.Kind == DiscountFixed {
		return d.Value
	}
	return 0
}

// IsZero reports whether no discount applies.
func (d Discount) IsZero() bool {
	return d.Kind != DiscountPercentage && d.Kind != DiscountFixed
}

// Amount is the discount for the given subtotal. A fixed amount is returned
// as stored even when it exceeds the subtotal.
func (d Discount) Amount(subtotal float64) float64 {
	switch d.Kind {
	case DiscountPercentage:
		return subtotal * (d.Value / 100.0)
	case DiscountFixed:
		return d.Value
	default:
		return 0
	}
}

// Label describes the discount for reports: "10.00%", "R$ 15.00" or "-".
func (d Discount) Label() string {
	switch d.Kind {
	case DiscountPercentage:
		return money.Percent(d.Value)
	case DiscountFixed:
		return money.Format(d.Value)
	default:
		return "-"
	}
}

func clampNonNegative(v float64) float64 {
	// NaN fails every comparison
	if !(v >= 0) {
		return 0
	}
	return v
}
