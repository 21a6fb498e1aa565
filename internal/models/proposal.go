package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Proposal is a quote sent to a client: priced line items, an optional
// discount and a lifecycle status.
type Proposal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Client relationship, set at construction and never reassigned
	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Title  string `gorm:"size:200;not null" json:"title"`
	Status Status `gorm:"size:20;not null;default:'rascunho';index" json:"status"`

	// Commercial terms
	ValidUntil   *datatypes.Date `json:"valid_until,omitempty"`
	Responsible  string          `gorm:"size:200" json:"responsible,omitempty"`
	PaymentTerms string          `gorm:"type:text" json:"payment_terms,omitempty"`

	// Optional rendering template
	TemplateID *uint     `gorm:"index" json:"template_id,omitempty"`
	Template   *Template `gorm:"foreignKey:TemplateID" json:"template,omitempty"`

	Discount Discount `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`

	Items []LineItem `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// NewProposal builds a draft proposal for an already persisted client.
// A blank title becomes "Proposta YYYYMMDD_HHMMSS" derived from now.
func NewProposal(client *Client, title string, now time.Time) (*Proposal, error) {
	if client == nil || client.ID == 0 {
		return nil, ErrClientRequired
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle(now)
	}
	return &Proposal{
		CreatedAt: now,
		ClientID:  client.ID,
		Client:    client,
		Title:     title,
		Status:    StatusDraft,
		Discount:  NoDiscount(),
	}, nil
}

// DefaultTitle is the placeholder title used when none is given.
func DefaultTitle(now time.Time) string {
	return "Proposta " + now.Format("20060102_150405")
}

// AddItem appends a line item after the existing ones and returns it.
func (p *Proposal) AddItem(description string, quantity int, unitPrice float64) *LineItem {
	pos := 0
	for _, it := range p.Items {
		if it.Position >= pos {
			pos = it.Position + 1
		}
	}
	p.Items = append(p.Items, LineItem{
		ProposalID:  p.ID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Position:    pos,
	})
	return &p.Items[len(p.Items)-1]
}

// RemoveItem drops the item with the given id. It reports whether an item
// was removed.
func (p *Proposal) RemoveItem(itemID uint) bool {
	for i, it := range p.Items {
		if it.ID == itemID {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ChangeStatus validates s and overwrites the current status. Any known
// status may follow any other. On error the status is left untouched.
func (p *Proposal) ChangeStatus(s string) error {
	st, err := ParseStatus(s)
	if err != nil {
		return err
	}
	p.Status = st
	return nil
}

// SetPercentageDiscount switches to a percentage discount, zeroing any fixed amount.
func (p *Proposal) SetPercentageDiscount(pct float64) {
	p.Discount = PercentageDiscount(pct)
}

// SetFixedDiscount switches to a fixed-amount discount, zeroing any percentage.
func (p *Proposal) SetFixedDiscount(amount float64) {
	p.Discount = FixedDiscount(amount)
}

// ClearDiscount removes the discount.
func (p *Proposal) ClearDiscount() {
	p.Discount = NoDiscount()
}

// ApplyDiscount sets the discount from a kind code as submitted by forms.
// An unknown kind is rejected and the discount left unchanged.
func (p *Proposal) ApplyDiscount(kind string, value float64) error {
	k, err := ParseDiscountKind(kind)
	if err != nil {
		return err
	}
	switch k {
	case DiscountPercentage:
		p.SetPercentageDiscount(value)
	case DiscountFixed:
		p.SetFixedDiscount(value)
	default:
		p.ClearDiscount()
	}
	return nil
}

// ClientName returns the client's name or an empty string when not loaded.
func (p *Proposal) ClientName() string {
	if p.Client == nil {
		return ""
	}
	return p.Client.Name
}

// ValidUntilTime returns the expiration date, if any.
func (p *Proposal) ValidUntilTime() (time.Time, bool) {
	if p.ValidUntil == nil {
		return time.Time{}, false
	}
	return time.Time(*p.ValidUntil), true
}

// SetValidUntil sets or clears (nil) the expiration date.
func (p *Proposal) SetValidUntil(t *time.Time) {
	if t == nil {
		p.ValidUntil = nil
		return
	}
	d := datatypes.Date(*t)
	p.ValidUntil = &d
}

// FormatValidUntil formats the expiration date with layout, or returns "".
func (p *Proposal) FormatValidUntil(layout string) string {
	t, ok := p.ValidUntilTime()
	if !ok {
		return ""
	}
	return t.Format(layout)
}

// LineItem is one priced entry of a proposal.
type LineItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProposalID uint `gorm:"index;not null" json:"proposal_id"`

	Description string  `gorm:"size:255;not null" json:"description"`
	Quantity    int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"not null;default:0" json:"unit_price"`

	// Position for ordering
	Position int `gorm:"default:0" json:"position"`
}

// Total calculates quantity × unit price.
func (item *LineItem) Total() float64 {
	return float64(item.Quantity) * item.UnitPrice
}
