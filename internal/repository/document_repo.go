package repository

import (
	"context"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *models.CompanyDocument) error
	ListByCategory(ctx context.Context, companyID uint, category string) ([]models.CompanyDocument, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, tx *gorm.DB, doc *models.CompanyDocument) error {
	return tx.WithContext(ctx).Create(doc).Error
}

// ListByCategory omits file content.
func (r *documentRepository) ListByCategory(ctx context.Context, companyID uint, category string) ([]models.CompanyDocument, error) {
	var docs []models.CompanyDocument
	err := r.db.WithContext(ctx).
		Omit("content").
		Where("company_id = ? AND category = ?", companyID, category).
		Order("created_at DESC, id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
