package db

import (
	"context"

	"github.com/gartstein/tradehub/internal/exchange/models"
)

func (r *Repository) GetDocument(ctx context.Context, subject models.Ref, docType models.DocumentType) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		First(&doc, "subject_kind = ? AND subject_id = ? AND type = ?", subject.Kind, subject.ID, docType).Error
	if err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}
