package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/services"
	"gorm.io/gorm"
)

// DefaultTemplateName names the template created on first start.
const DefaultTemplateName = "Padrão"

// Seed ensures the default admin account and the default template exist.
// It is safe to run on every start.
func Seed(d *gorm.DB) error {
	if err := services.NewUserService(d).EnsureDefaultAdmin(context.Background()); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	var tpl models.Template
	err := d.Where("name = ?", DefaultTemplateName).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tpl = models.Template{
			Name:                DefaultTemplateName,
			DefaultResponsible:  "Equipe Comercial",
			DefaultPaymentTerms: "Pagamento em até 30 dias após a aceitação.",
			IntroText:           "Apresentamos a seguir nossa proposta comercial.",
			TermsText:           "Valores sujeitos a alteração após a data de validade.",
			FooterText:          "Obrigado pela preferência.",
			PrimaryColor:        models.DefaultPrimaryColor,
		}
		if err := d.Create(&tpl).Error; err != nil {
			return fmt.Errorf("seed template: %w", err)
		}
		return nil
	}
	return err
}
