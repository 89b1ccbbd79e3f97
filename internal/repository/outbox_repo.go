package repository

import (
	"gorm.io/gorm"

	"trxmining/internal/model"
)

type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *OutboxRepository) Create(tx *gorm.DB, msg *model.OutboxMessage) error {
	return r.conn(tx).Create(msg).Error
}

func (r *OutboxRepository) GetPending(tx *gorm.DB, limit int) ([]model.OutboxMessage, error) {
	var messages []model.OutboxMessage
	err := r.conn(tx).
		Where("status = ?", model.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *OutboxRepository) MarkSent(tx *gorm.DB, id int64) error {
	return r.conn(tx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", model.OutboxStatusSent).Error
}

// MarkRetry bumps the retry counter and fails the message permanently once
// maxRetry is reached.
func (r *OutboxRepository) MarkRetry(tx *gorm.DB, id int64, maxRetry int) error {
	updates := map[string]interface{}{
		"retry_count": gorm.Expr("retry_count + 1"),
	}
	if err := r.conn(tx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}
	return r.conn(tx).Model(&model.OutboxMessage{}).
		Where("id = ? AND retry_count >= ?", id, maxRetry).
		Update("status", model.OutboxStatusFailed).Error
}
