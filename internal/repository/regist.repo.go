package repository

import (
	database "mobile-banking-core/internal/pkg/db"
	kycRepo "mobile-banking-core/internal/repository/kyc"
	paymentRepo "mobile-banking-core/internal/repository/payment"
)

// IRepository is a container for all repository interfaces
type IRepository struct {
	Payment paymentRepo.IRepository
	Kyc     kycRepo.IRepository
}

func NewRepository(db *database.Database) *IRepository {
	return &IRepository{
		Payment: paymentRepo.NewRepo(db),
		Kyc:     kycRepo.NewRepo(db),
	}
}
