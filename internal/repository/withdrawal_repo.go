package repository

import (
	"errors"

	"gorm.io/gorm"

	"trxmining/internal/model"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *WithdrawalRepository) Create(tx *gorm.DB, withdrawal *model.Withdrawal) error {
	if err := r.conn(tx).Create(withdrawal).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrTxHashUsed
		}
		return err
	}
	return nil
}

func (r *WithdrawalRepository) GetByTxHash(tx *gorm.DB, txHash string) (*model.Withdrawal, error) {
	var withdrawal model.Withdrawal
	err := r.conn(tx).Where("tx_hash = ?", txHash).First(&withdrawal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// SetTxHash records the on-chain payout transaction once it is executed.
// The NULL guard keeps the column write-once and the unique index rejects a
// hash already spent elsewhere.
func (r *WithdrawalRepository) SetTxHash(tx *gorm.DB, withdrawalNo, txHash string) error {
	result := r.conn(tx).Model(&model.Withdrawal{}).
		Where("withdrawal_no = ? AND tx_hash IS NULL", withdrawalNo).
		Update("tx_hash", txHash)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return ErrTxHashUsed
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWithdrawalNotFound
	}
	return nil
}

func (r *WithdrawalRepository) ListByUserID(tx *gorm.DB, userID int64) ([]model.Withdrawal, error) {
	var withdrawals []model.Withdrawal
	err := r.conn(tx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&withdrawals).Error
	return withdrawals, err
}
