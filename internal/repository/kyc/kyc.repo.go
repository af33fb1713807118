package kyc

import (
	"context"
	"mobile-banking-core/internal/common/models"
	database "mobile-banking-core/internal/pkg/db"

	"gorm.io/gorm/clause"
)

type IRepository interface {
	SaveCase(ctx context.Context, kycCase *models.KycCase) error
	FindByCaseID(ctx context.Context, caseID string) (*models.KycCase, error)
}

type Repository struct {
	db *database.Database
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{db: db}
}

// SaveCase upserts by backend case id. A later decision replaces the earlier one.
func (r *Repository) SaveCase(ctx context.Context, kycCase *models.KycCase) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "case_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "status", "decision_reason", "checks", "decided_at", "updated_at"}),
	}).Create(kycCase).Error
}

func (r *Repository) FindByCaseID(ctx context.Context, caseID string) (*models.KycCase, error) {
	var kycCase models.KycCase
	err := r.db.WithContext(ctx).Where("case_id = ?", caseID).First(&kycCase).Error
	if err != nil {
		return nil, err
	}
	return &kycCase, nil
}
