package repository

import (
	"gorm.io/gorm"

	"trxmining/internal/model"
)

// VerificationRepository writes the append-only attempt log. Rows are
// never updated.
type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *VerificationRepository) Append(tx *gorm.DB, v *model.TxVerification) error {
	return r.conn(tx).Create(v).Error
}
