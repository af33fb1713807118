package payment

import (
	"context"
	"mobile-banking-core/internal/common/models"
	database "mobile-banking-core/internal/pkg/db"

	"gorm.io/gorm/clause"
)

type IRepository interface {
	SaveAttempt(ctx context.Context, attempt *models.PaymentAttempt) error
	FindByIdempotencyKey(ctx context.Context, key string) (*models.PaymentAttempt, error)
	FindByFlowID(ctx context.Context, flowID string, direction database.DirectionEnum) ([]models.PaymentAttempt, error)
}

type Repository struct {
	db *database.Database
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{db: db}
}

// SaveAttempt inserts the attempt or, when a row with the same idempotency
// key exists, overwrites its outcome. Retries of one attempt share a key.
func (r *Repository) SaveAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "idempotency_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"flow_id", "intent_id", "stage", "error", "details", "finished_at", "updated_at",
		}),
	}).Create(attempt).Error
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *Repository) FindByFlowID(ctx context.Context, flowID string, direction database.DirectionEnum) ([]models.PaymentAttempt, error) {
	var attempts []models.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("flow_id = ?", flowID).
		Order(direction.OrderBy("created_at")).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
