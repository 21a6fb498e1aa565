package models

import (
	"strings"
	"time"
)

// Client is a customer that receives proposals.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"size:200;not null;index" json:"name"`
	Document string `gorm:"size:50" json:"document,omitempty"`
	Contact  string `gorm:"size:200" json:"contact,omitempty"`

	Proposals []Proposal `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"proposals,omitempty"`
}

// NewClient trims its inputs and requires a name.
func NewClient(name, document, contact string) (*Client, error) {
	c := &Client{
		Name:     strings.TrimSpace(name),
		Document: strings.TrimSpace(document),
		Contact:  strings.TrimSpace(contact),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the required fields.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	return nil
}
