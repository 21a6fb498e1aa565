package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dealflow/dealflow/internal/models"
	"gorm.io/gorm"
)

// ClientService persists clients.
type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

// Create validates and inserts c, assigning its ID.
func (s *ClientService) Create(ctx context.Context, c *models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Omit("Proposals").Create(c).Error; err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// Get loads a client by id.
func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, lookupErr("client", id, err)
	}
	return &c, nil
}

// List returns clients ordered by name, optionally filtered by a
// case-insensitive match on name or document.
func (s *ClientService) List(ctx context.Context, query string) ([]models.Client, error) {
	q := s.db.WithContext(ctx).Model(&models.Client{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(document) LIKE ?", like, like)
	}
	var clients []models.Client
	if err := q.Order("name").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// Update validates and saves every field of c.
func (s *ClientService) Update(ctx context.Context, c *models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(c).Select("name", "document", "contact").Updates(c)
	if res.Error != nil {
		return fmt.Errorf("update client %d: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("client %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a client together with its proposals and their items.
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&models.Proposal{}).Select("id").Where("client_id = ?", id)
		if err := tx.Where("proposal_id IN (?)", sub).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("delete items of client %d: %w", id, err)
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.Proposal{}).Error; err != nil {
			return fmt.Errorf("delete proposals of client %d: %w", id, err)
		}
		res := tx.Delete(&models.Client{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete client %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("client %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Count returns the number of clients.
func (s *ClientService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Client{}).Count(&n).Error
	return n, err
}
