package repository

import (
	"errors"

	"gorm.io/gorm"

	"trxmining/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *UserRepository) Create(tx *gorm.DB, user *model.User) error {
	if err := r.conn(tx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(tx *gorm.DB, id int64) (*model.User, error) {
	var user model.User
	err := r.conn(tx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByReferralCode(tx *gorm.DB, code string) (*model.User, error) {
	var user model.User
	err := r.conn(tx).Where("referral_code = ?", code).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreditMineBalance adds amount (SUN) to the mining balance atomically.
func (r *UserRepository) CreditMineBalance(tx *gorm.DB, userID int64, amount int64) error {
	return r.conn(tx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("mine_balance", gorm.Expr("mine_balance + ?", amount)).Error
}

// CreditReferralReward adds the reward to the referral balance and bumps
// the valid-referral counter in one statement.
func (r *UserRepository) CreditReferralReward(tx *gorm.DB, userID int64, amount int64) error {
	return r.conn(tx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"referral_balance": gorm.Expr("referral_balance + ?", amount),
			"valid_referrals":  gorm.Expr("valid_referrals + 1"),
		}).Error
}

// DebitBalance decrements the chosen balance only if it covers amount.
// RowsAffected 0 means the balance was insufficient at execution time.
func (r *UserRepository) DebitBalance(tx *gorm.DB, userID int64, balanceType string, amount int64) error {
	column := "mine_balance"
	if balanceType == model.BalanceReferral {
		column = "referral_balance"
	}
	result := r.conn(tx).Model(&model.User{}).
		Where("id = ? AND "+column+" >= ?", userID, amount).
		Update(column, gorm.Expr(column+" - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// SetHasActiveMining latches the mine-withdrawal gate. It records that a
// node was ever activated and is never unset, not even on completion.
func (r *UserRepository) SetHasActiveMining(tx *gorm.DB, userID int64) error {
	return r.conn(tx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("has_active_mining", true).Error
}

// SetHasBoughtNode4 latches the top-tier flag; it is never unset.
func (r *UserRepository) SetHasBoughtNode4(tx *gorm.DB, userID int64) error {
	return r.conn(tx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("has_bought_node4", true).Error
}

func (r *UserRepository) IncrementTotalReferrals(tx *gorm.DB, userID int64) error {
	return r.conn(tx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("total_referrals", gorm.Expr("total_referrals + 1")).Error
}
