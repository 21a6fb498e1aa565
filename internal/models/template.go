package models

import (
	"strconv"
	"strings"
	"time"
)

// DefaultPrimaryColor is used when a template has no valid color.
const DefaultPrimaryColor = "#1F4E79"

// Template bundles the branding and default texts applied when a proposal is
// rendered to PDF. It has no effect on pricing or status.
type Template struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`

	// Defaults for blank proposal fields
	DefaultTitle        string `gorm:"size:200" json:"default_title,omitempty"`
	DefaultResponsible  string `gorm:"size:200" json:"default_responsible,omitempty"`
	DefaultPaymentTerms string `gorm:"type:text" json:"default_payment_terms,omitempty"`

	// Text blocks
	IntroText  string `gorm:"type:text" json:"intro_text,omitempty"`
	TermsText  string `gorm:"type:text" json:"terms_text,omitempty"`
	FooterText string `gorm:"type:text" json:"footer_text,omitempty"`

	// Branding
	PrimaryColor string `gorm:"size:7;default:'#1F4E79'" json:"primary_color"`
	LogoRef      string `gorm:"size:255" json:"logo_ref,omitempty"`
}

// Validate checks the required fields.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// RGB decodes PrimaryColor ("#RRGGBB"), falling back to DefaultPrimaryColor.
func (t *Template) RGB() (r, g, b int) {
	if r, g, b, ok := parseHexColor(t.PrimaryColor); ok {
		return r, g, b
	}
	r, g, b, _ = parseHexColor(DefaultPrimaryColor)
	return r, g, b
}

// HasLogo reports whether a logo was uploaded.
func (t *Template) HasLogo() bool {
	return t.LogoRef != ""
}

// Resolve returns the rendered title, responsible and payment terms for p:
// the proposal's own values, with blanks filled from the template.
func (t *Template) Resolve(p *Proposal) (title, responsible, paymentTerms string) {
	title, responsible, paymentTerms = p.Title, p.Responsible, p.PaymentTerms
	if t == nil {
		return
	}
	if strings.TrimSpace(title) == "" {
		title = t.DefaultTitle
	}
	if strings.TrimSpace(responsible) == "" {
		responsible = t.DefaultResponsible
	}
	if strings.TrimSpace(paymentTerms) == "" {
		paymentTerms = t.DefaultPaymentTerms
	}
	return
}

func parseHexColor(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), true
}
