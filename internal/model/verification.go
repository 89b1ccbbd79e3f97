package model

import (
	"time"
)

const (
	VerificationStatusPending  = "PENDING"
	VerificationStatusVerified = "VERIFIED"
	VerificationStatusFailed   = "FAILED"
)

// TxVerification records one verification attempt against the ledger-lookup
// service. The table is append-only, one row per attempt keyed by TxHash,
// so repeated attempts are observable without counting as duplicate use.
type TxVerification struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TxHash       string     `gorm:"type:varchar(64);index;not null" json:"tx_hash"`
	Attempt      int        `gorm:"not null" json:"attempt"`
	Status       string     `gorm:"type:varchar(20);not null" json:"status"`
	ErrorKind    string     `gorm:"type:varchar(32)" json:"error_kind"`
	ErrorMessage string     `gorm:"type:varchar(256)" json:"error_message"`
	Amount       int64      `json:"amount"`
	FromAddress  string     `gorm:"type:varchar(64)" json:"from_address"`
	ToAddress    string     `gorm:"type:varchar(64)" json:"to_address"`
	BlockTime    *time.Time `json:"block_time"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (TxVerification) TableName() string {
	return "transaction_verifications"
}
