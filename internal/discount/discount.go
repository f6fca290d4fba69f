// Package discount computes monetary deductions for promo codes. The
// evaluator is a pure function so order creation can call it inside a
// database transaction without side effects.
package discount

import (
	"time"

	"restoweb/backend/internal/domain"
)

// Calculate returns the deduction a discount grants on amount at the given
// instant. It fails closed: any discount that is inactive, outside its
// validity window, usage-exhausted, or below its minimum purchase amount
// yields zero. The result never exceeds amount.
func Calculate(d domain.Discount, amount int64, now time.Time) int64 {
	if !Usable(d, now) {
		return 0
	}
	if d.MinimumAmount > 0 && amount < d.MinimumAmount {
		return 0
	}

	var deduction int64
	switch d.Type {
	case domain.DiscountTypePercentage:
		deduction = amount * d.Value / 100
	case domain.DiscountTypeFixed:
		deduction = d.Value
	case domain.DiscountTypeBOGO:
		// Item-level promos are priced at order assembly, not here.
		return 0
	default:
		return 0
	}

	if d.MaximumDiscount > 0 && deduction > d.MaximumDiscount {
		deduction = d.MaximumDiscount
	}
	if deduction > amount {
		deduction = amount
	}
	if deduction < 0 {
		deduction = 0
	}
	return deduction
}

// Usable reports whether the discount may be applied at all, independent of
// the purchase amount.
func Usable(d domain.Discount, now time.Time) bool {
	if !d.Active {
		return false
	}
	if now.Before(d.StartsAt) {
		return false
	}
	if !d.EndsAt.IsZero() && now.After(d.EndsAt) {
		return false
	}
	if d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit {
		return false
	}
	return true
}
