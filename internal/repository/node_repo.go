package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"trxmining/internal/model"
)

type NodeRepository struct {
	db *gorm.DB
}

func NewNodeRepository(db *gorm.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

func (r *NodeRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts the purchase row. The unique index on tx_hash is the
// duplicate-use reservation: a conflicting insert means the hash was
// claimed concurrently, regardless of what earlier reads saw.
func (r *NodeRepository) Create(tx *gorm.DB, node *model.UserNode) error {
	if err := r.conn(tx).Create(node).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrTxHashUsed
		}
		return err
	}
	return nil
}

func (r *NodeRepository) GetByTxHash(tx *gorm.DB, txHash string) (*model.UserNode, error) {
	var node model.UserNode
	err := r.conn(tx).Where("tx_hash = ?", txHash).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *NodeRepository) GetRunningByUserAndNode(tx *gorm.DB, userID int64, nodeID string) (*model.UserNode, error) {
	var node model.UserNode
	err := r.conn(tx).
		Where("user_id = ? AND node_id = ? AND status = ?", userID, nodeID, model.NodeStatusRunning).
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *NodeRepository) ListByUserID(tx *gorm.DB, userID int64) ([]model.UserNode, error) {
	var nodes []model.UserNode
	err := r.conn(tx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&nodes).Error
	return nodes, err
}

// Complete transitions one node RUNNING -> COMPLETED. The status guard in
// the WHERE clause makes the transition happen at most once; the caller
// credits the payout only when completed is true.
func (r *NodeRepository) Complete(tx *gorm.DB, nodeID int64) (bool, error) {
	result := r.conn(tx).Model(&model.UserNode{}).
		Where("id = ? AND status = ?", nodeID, model.NodeStatusRunning).
		Updates(map[string]interface{}{
			"status":   model.NodeStatusCompleted,
			"progress": 100,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetRunningExpired lists running nodes whose end date has passed.
func (r *NodeRepository) GetRunningExpired(tx *gorm.DB, now time.Time, limit int) ([]model.UserNode, error) {
	var nodes []model.UserNode
	err := r.conn(tx).
		Where("status = ? AND end_date <= ?", model.NodeStatusRunning, now).
		Limit(limit).
		Find(&nodes).Error
	return nodes, err
}

func (r *NodeRepository) UpdateProgress(tx *gorm.DB, nodeID int64, progress float64) error {
	return r.conn(tx).Model(&model.UserNode{}).
		Where("id = ? AND status = ?", nodeID, model.NodeStatusRunning).
		Update("progress", progress).Error
}
