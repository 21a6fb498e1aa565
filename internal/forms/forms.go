// Package forms converts raw text submitted by HTML forms and the CLI into
// domain values. Parsing errors are reported per row so callers can skip
// bad input instead of failing the whole submission.
package forms

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of <input type="date"> values.
const DateLayout = "2006-01-02"

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidDate     = errors.New("invalid date")
)

// ParseAmount parses a monetary or percentage value. A blank string is 0,
// and a comma is accepted as the decimal separator ("12,50"). When both
// separators appear the dots are thousands separators ("1.234,50").
// NaN and infinities are rejected.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseQuantity parses a whole, positive quantity. A blank string is 1.
func ParseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// ParseDate parses an ISO date. A blank string yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}

// ItemInput is a parsed line item row, ready for Proposal.AddItem.
type ItemInput struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// ParseLineItems zips the parallel description/quantity/price columns of a
// form. Rows with a blank description, an invalid quantity or an
// unparseable price are skipped. Missing trailing columns count as blank.
func ParseLineItems(descriptions, quantities, prices []string) []ItemInput {
	items := make([]ItemInput, 0, len(descriptions))
	for i, d := range descriptions {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		qty, err := ParseQuantity(at(quantities, i))
		if err != nil {
			continue
		}
		price, err := ParseAmount(at(prices, i))
		if err != nil {
			continue
		}
		items = append(items, ItemInput{Description: d, Quantity: qty, UnitPrice: price})
	}
	return items
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
