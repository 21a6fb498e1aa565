package services

import (
	"context"
	"fmt"

	"github.com/dealflow/dealflow/internal/models"
	"gorm.io/gorm"
)

// TemplateService persists rendering templates.
type TemplateService struct {
	db *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

func (s *TemplateService) Create(ctx context.Context, t *models.Template) error {
	if err := s.check(ctx, t); err != nil {
		return err
	}
	if t.PrimaryColor == "" {
		t.PrimaryColor = models.DefaultPrimaryColor
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// check validates t and rejects a name used by another template.
func (s *TemplateService) check(ctx context.Context, t *models.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Template{}).
		Where("name = ? AND id <> ?", t.Name, t.ID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check template name: %w", err)
	}
	if n > 0 {
		return ErrTemplateExists
	}
	return nil
}

func (s *TemplateService) Get(ctx context.Context, id uint) (*models.Template, error) {
	var t models.Template
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, lookupErr("template", id, err)
	}
	return &t, nil
}

func (s *TemplateService) List(ctx context.Context) ([]models.Template, error) {
	var out []models.Template
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (s *TemplateService) Update(ctx context.Context, t *models.Template) error {
	if err := s.check(ctx, t); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("update template %d: %w", t.ID, err)
	}
	return nil
}

// Delete removes a template. Proposals using it fall back to no template.
func (s *TemplateService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Proposal{}).Where("template_id = ?", id).Update("template_id", nil).Error; err != nil {
			return fmt.Errorf("detach template %d: %w", id, err)
		}
		res := tx.Delete(&models.Template{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete template %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("template %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// SetLogo records the object storage key of the template logo.
func (s *TemplateService) SetLogo(ctx context.Context, id uint, ref string) error {
	res := s.db.WithContext(ctx).Model(&models.Template{}).Where("id = ?", id).Update("logo_ref", ref)
	if res.Error != nil {
		return fmt.Errorf("set logo of template %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return nil
}
