package models

// Subtotal sums quantity × unit price over items. An empty list yields 0.
func Subtotal(items []LineItem) float64 {
	var total float64
	for i := range items {
		total += items[i].Total()
	}
	return total
}

// Total applies d to subtotal and floors the result at 0.
func Total(subtotal float64, d Discount) float64 {
	t := subtotal - d.Amount(subtotal)
	if t < 0 {
		return 0
	}
	return t
}

// Subtotal calculates the sum of the line totals.
func (p *Proposal) Subtotal() float64 {
	return Subtotal(p.Items)
}

// DiscountAmount calculates the discount for the current items.
func (p *Proposal) DiscountAmount() float64 {
	return p.Discount.Amount(p.Subtotal())
}

// Total calculates subtotal minus discount, never below 0.
func (p *Proposal) Total() float64 {
	return Total(p.Subtotal(), p.Discount)
}
