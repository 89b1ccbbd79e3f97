package model

import (
	"time"
)

const WithdrawalStatusCompleted = "COMPLETED"

// Withdrawal is an append-only ledger entry recording a balance decrement.
// Rows are never deleted; the only mutation ever applied is the write-once
// payout TxHash, which also feeds the duplicate-use guard.
type Withdrawal struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WithdrawalNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdrawal_no"`
	UserID       int64     `gorm:"index;not null" json:"user_id"`
	BalanceType  string    `gorm:"type:varchar(20);not null" json:"balance_type"`
	Amount       int64     `gorm:"not null" json:"amount"`
	ToAddress    string    `gorm:"type:varchar(64);not null" json:"to_address"`
	TxHash       *string   `gorm:"type:varchar(64);uniqueIndex" json:"tx_hash"`
	Status       string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
