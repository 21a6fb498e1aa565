package models

import "strings"

// Status is the lifecycle label of a proposal.
type Status string

const (
	StatusDraft     Status = "rascunho"
	StatusSent      Status = "enviada"
	StatusAccepted  Status = "aceita"
	StatusRejected  Status = "recusada"
	StatusCancelled Status = "cancelada"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusCancelled}

var statusLabels = map[Status]string{
	StatusDraft:     "Rascunho",
	StatusSent:      "Enviada",
	StatusAccepted:  "Aceita",
	StatusRejected:  "Recusada",
	StatusCancelled: "Cancelada",
}

// ParseStatus normalizes s (trim + lower case) and checks it against the
// five known statuses.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalid(ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display name.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) String() string { return string(s) }
