package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dealflow/dealflow/internal/models"
	"gorm.io/gorm"
)

// ProposalFilter narrows List. Zero values match everything.
type ProposalFilter struct {
	Status   models.Status
	ClientID uint
	Query    string // matched against title and client name, case-insensitive
}

// ProposalService persists proposals and their line items.
type ProposalService struct {
	db *gorm.DB
}

func NewProposalService(db *gorm.DB) *ProposalService {
	return &ProposalService{db: db}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

// Create inserts p and its items in one transaction.
func (s *ProposalService) Create(ctx context.Context, p *models.Proposal) error {
	if p.ClientID == 0 {
		return models.ErrClientRequired
	}
	if p.Status == "" {
		p.Status = models.StatusDraft
	}
	if p.Discount.Kind == "" {
		p.Discount = models.NoDiscount()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client", "Template", "Items").Create(p).Error; err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		for i := range p.Items {
			p.Items[i].ProposalID = p.ID
		}
		if len(p.Items) > 0 {
			if err := tx.Create(&p.Items).Error; err != nil {
				return fmt.Errorf("create items: %w", err)
			}
		}
		return nil
	})
}

// Get loads a proposal with its client, template and ordered items.
func (s *ProposalService) Get(ctx context.Context, id uint) (*models.Proposal, error) {
	var p models.Proposal
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Template").
		Preload("Items", itemsByPosition).
		First(&p, id).Error
	if err != nil {
		return nil, lookupErr("proposal", id, err)
	}
	return &p, nil
}

// List returns proposals newest first.
func (s *ProposalService) List(ctx context.Context, f ProposalFilter) ([]models.Proposal, error) {
	q := s.db.WithContext(ctx).Model(&models.Proposal{})
	if f.Status != "" {
		q = q.Where("proposals.status = ?", f.Status)
	}
	if f.ClientID != 0 {
		q = q.Where("proposals.client_id = ?", f.ClientID)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Joins("JOIN clients ON clients.id = proposals.client_id").
			Where("LOWER(proposals.title) LIKE ? OR LOWER(clients.name) LIKE ?", like, like)
	}
	var out []models.Proposal
	err := q.Preload("Client").
		Preload("Items", itemsByPosition).
		Order("proposals.created_at DESC, proposals.id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return out, nil
}

// Recent returns the n most recently created proposals.
func (s *ProposalService) Recent(ctx context.Context, n int) ([]models.Proposal, error) {
	var out []models.Proposal
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", itemsByPosition).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent proposals: %w", err)
	}
	return out, nil
}

// All returns every proposal with client and items, ordered by id, for exports.
func (s *ProposalService) All(ctx context.Context) ([]models.Proposal, error) {
	var out []models.Proposal
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", itemsByPosition).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("all proposals: %w", err)
	}
	return out, nil
}

// Count returns the number of proposals.
func (s *ProposalService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Proposal{}).Count(&n).Error
	return n, err
}

// CountByStatus returns how many proposals are in each status. Every known
// status is present in the result, possibly with 0.
func (s *ProposalService) CountByStatus(ctx context.Context) (map[models.Status]int64, error) {
	var rows []struct {
		Status models.Status
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&models.Proposal{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	out := make(map[models.Status]int64, len(models.Statuses))
	for _, st := range models.Statuses {
		out[st] = 0
	}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// Save writes the whole proposal: its own columns and its item set. Items
// no longer present in p.Items are deleted.
func (s *ProposalService) Save(ctx context.Context, p *models.Proposal) error {
	if p.ID == 0 {
		return s.Create(ctx, p)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client", "Template", "Items").Save(p).Error; err != nil {
			return fmt.Errorf("save proposal %d: %w", p.ID, err)
		}
		keep := make([]uint, 0, len(p.Items))
		for _, it := range p.Items {
			if it.ID != 0 {
				keep = append(keep, it.ID)
			}
		}
		del := tx.Where("proposal_id = ?", p.ID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("prune items of %d: %w", p.ID, err)
		}
		for i := range p.Items {
			p.Items[i].ProposalID = p.ID
			if err := tx.Save(&p.Items[i]).Error; err != nil {
				return fmt.Errorf("save item of %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// Delete removes a proposal and its items.
func (s *ProposalService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("delete items of %d: %w", id, err)
		}
		res := tx.Delete(&models.Proposal{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete proposal %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("proposal %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ChangeStatus loads the proposal, applies the status guard and persists
// the new status. A rejected status leaves the stored proposal unchanged.
func (s *ProposalService) ChangeStatus(ctx context.Context, id uint, status string) (*models.Proposal, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ChangeStatus(status); err != nil {
		return p, err
	}
	if err := s.db.WithContext(ctx).Model(p).Update("status", p.Status).Error; err != nil {
		return p, fmt.Errorf("update status of %d: %w", id, err)
	}
	return p, nil
}

// ApplyDiscount sets the discount from a form kind code and persists it.
func (s *ProposalService) ApplyDiscount(ctx context.Context, id uint, kind string, value float64) (*models.Proposal, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyDiscount(kind, value); err != nil {
		return p, err
	}
	err = s.db.WithContext(ctx).Model(p).Updates(map[string]any{
		"discount_kind":  p.Discount.Kind,
		"discount_value": p.Discount.Value,
	}).Error
	if err != nil {
		return p, fmt.Errorf("update discount of %d: %w", id, err)
	}
	return p, nil
}

// AddItem appends a line item to the stored proposal.
func (s *ProposalService) AddItem(ctx context.Context, id uint, description string, quantity int, unitPrice float64) (*models.Proposal, *models.LineItem, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	it := p.AddItem(description, quantity, unitPrice)
	if err := s.db.WithContext(ctx).Create(it).Error; err != nil {
		return p, nil, fmt.Errorf("add item to %d: %w", id, err)
	}
	return p, it, nil
}

// RemoveItem deletes one item of a proposal.
func (s *ProposalService) RemoveItem(ctx context.Context, proposalID, itemID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND proposal_id = ?", itemID, proposalID).
		Delete(&models.LineItem{})
	if res.Error != nil {
		return fmt.Errorf("remove item %d of %d: %w", itemID, proposalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %d of proposal %d: %w", itemID, proposalID, ErrNotFound)
	}
	return nil
}
