package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dealflow/dealflow/internal/models"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// First returns a human readable message for one violation, fields in
// sorted order, or "" when empty.
func (v Violations) First() string {
	best := ""
	for f := range v {
		if best == "" || f < best {
			best = f
		}
	}
	if best == "" {
		return ""
	}
	return best + ": " + Message(v[best])
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// NonNegativeFloat also rejects NaN.
func NonNegativeFloat(field string, val float64, v Violations) {
	if !(val >= 0) {
		v[field] = "must_not_be_negative"
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) > n {
		v[field] = "too_long"
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func HexColor(field, value string, v Violations) {
	if value != "" && !hexColor.MatchString(value) {
		v[field] = "invalid_color"
	}
}

func MinLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) < n {
		v[field] = "too_short"
	}
}

// FromError records a domain validation error under its field. It reports
// whether err was one.
func FromError(err error, v Violations) bool {
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	v[ve.Field] = ve.Code
	return true
}

var messages = map[string]string{
	"required":             "campo obrigatório",
	"must_not_be_negative": "não pode ser negativo",
	"too_long":             "texto muito longo",
	"too_short":            "texto muito curto",
	"invalid_color":        "cor inválida (use #RRGGBB)",
	"invalid_status":       "status inválido",
	"invalid_discount":     "tipo de desconto inválido",
	"invalid_amount":       "valor inválido",
	"invalid_quantity":     "quantidade inválida",
	"invalid_date":         "data inválida (use AAAA-MM-DD)",
	"mismatch":             "as senhas não conferem",
	"taken":                "já está em uso",
	"not_found":            "não encontrado",
	"unsupported_type":     "formato não suportado (PNG ou JPEG)",
	"invalid_credentials":  "senha atual incorreta",
}

// Message translates a violation code for display.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return code
}
