package database

import (
	"fmt"
	"mobile-banking-core/internal/common/models"
	"mobile-banking-core/internal/pkg/logger"
)

func (db *Database) RunMigrations() error {
	logger.Info.Println("Starting database migrations...")

	tables := []interface{}{
		&models.PaymentAttempt{},
		&models.KycCase{},
	}

	for _, model := range tables {
		logger.Info.Printf("Migrating model: %T", model)
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	if err := db.createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Info.Println("Database migrations completed successfully")
	return nil
}

func (db *Database) createIndexes() error {
	indexes := []struct {
		name    string
		model   interface{}
		columns string
	}{
		{name: "idx_payment_attempts_flow_finished", model: &models.PaymentAttempt{}, columns: "flow_id, finished_at"},
		{name: "idx_kyc_cases_status_decided", model: &models.KycCase{}, columns: "status, decided_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, tableName(idx.model), idx.columns)
		if err := db.Exec(stmt).Error; err != nil {
			logger.Error.Printf("Error creating index %s: %v", idx.name, err)
			return err
		}
	}
	return nil
}

func tableName(model interface{}) string {
	if t, ok := model.(interface{ TableName() string }); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", model)
}
