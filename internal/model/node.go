package model

import (
	"time"
)

const (
	NodeStatusPending   = "PENDING"
	NodeStatusRunning   = "RUNNING"
	NodeStatusCompleted = "COMPLETED"
	NodeStatusCancelled = "CANCELLED"
)

var ValidNodeTransitions = map[string][]string{
	NodeStatusPending: {NodeStatusRunning, NodeStatusCancelled},
	NodeStatusRunning: {NodeStatusCompleted, NodeStatusCancelled},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidNodeTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// TopNodeID is the tier whose purchase unlocks referral withdrawals.
const TopNodeID = "node4"

// MiningNode is a catalog tier: immutable reference data, not user state.
type MiningNode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PriceTRX     int64  `json:"price_trx"`
	Storage      string `json:"storage"`
	MiningTRX    int64  `json:"mining_trx"`
	DurationDays int    `json:"duration_days"`
	Description  string `json:"description"`
}

func (n MiningNode) PriceSun() int64 {
	return TRXToSun(n.PriceTRX)
}

func (n MiningNode) MiningSun() int64 {
	return TRXToSun(n.MiningTRX)
}

func (n MiningNode) Duration() time.Duration {
	return time.Duration(n.DurationDays) * 24 * time.Hour
}

var MiningNodes = []MiningNode{
	{ID: "node1", Name: "64 GB Node", PriceTRX: 50, Storage: "64 GB", MiningTRX: 500, DurationDays: 30, Description: "Mine 500 TRX in 30 days"},
	{ID: "node2", Name: "128 GB Node", PriceTRX: 75, Storage: "128 GB", MiningTRX: 500, DurationDays: 15, Description: "Mine 500 TRX in 15 days"},
	{ID: "node3", Name: "256 GB Node", PriceTRX: 100, Storage: "256 GB", MiningTRX: 1000, DurationDays: 7, Description: "Mine 1000 TRX in 7 days"},
	{ID: TopNodeID, Name: "1024 GB Node", PriceTRX: 250, Storage: "1024 GB", MiningTRX: 1000, DurationDays: 3, Description: "Mine 1000 TRX in 3 days"},
}

func NodeByID(id string) (MiningNode, bool) {
	for _, n := range MiningNodes {
		if n.ID == id {
			return n, true
		}
	}
	return MiningNode{}, false
}

// UserNode is a user's purchased instance of a mining tier, created only
// after the payment behind TxHash has been verified on chain.
type UserNode struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64     `gorm:"index;not null" json:"user_id"`
	NodeID       string    `gorm:"type:varchar(16);not null" json:"node_id"`
	TxHash       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"tx_hash"`
	Status       string    `gorm:"type:varchar(20);index;not null" json:"status"`
	Progress     float64   `gorm:"not null;default:0" json:"progress"`
	StartDate    time.Time `gorm:"not null" json:"start_date"`
	EndDate      time.Time `gorm:"not null;index" json:"end_date"`
	MiningAmount int64     `gorm:"not null" json:"mining_amount"`
	MiningRate   int64     `gorm:"not null" json:"mining_rate"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserNode) TableName() string {
	return "user_nodes"
}

// ProgressAt derives elapsed-time progress in [0,100]. Progress is never
// authoritative in storage for a running node; it is recomputed on read.
func (n *UserNode) ProgressAt(now time.Time) float64 {
	if n.Status == NodeStatusCompleted {
		return 100
	}
	total := n.EndDate.Sub(n.StartDate)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(n.StartDate)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 100
	}
	return float64(elapsed) / float64(total) * 100
}
