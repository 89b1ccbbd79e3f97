package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"trxmining/internal/model"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ReferralRepository) Create(tx *gorm.DB, referral *model.Referral) error {
	if err := r.conn(tx).Create(referral).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrReferralExists
		}
		return err
	}
	return nil
}

// GetPendingByReferredID finds the unsettled referral naming this user as
// the referred party. Nil result means there is nothing to settle.
func (r *ReferralRepository) GetPendingByReferredID(tx *gorm.DB, referredID int64) (*model.Referral, error) {
	var referral model.Referral
	err := r.conn(tx).
		Where("referred_id = ? AND is_valid = ?", referredID, false).
		First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// Settle flips a referral to valid and paid in one guarded update. Exactly
// one caller can win the transition; everyone else sees won == false.
func (r *ReferralRepository) Settle(tx *gorm.DB, referralID int64, activatedAt time.Time) (bool, error) {
	result := r.conn(tx).Model(&model.Referral{}).
		Where("id = ? AND is_valid = ?", referralID, false).
		Updates(map[string]interface{}{
			"is_valid":     true,
			"reward_paid":  true,
			"activated_at": activatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReferralRepository) ListByReferrerID(tx *gorm.DB, referrerID int64) ([]model.Referral, error) {
	var referrals []model.Referral
	err := r.conn(tx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&referrals).Error
	return referrals, err
}
