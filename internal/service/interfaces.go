package service

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"trxmining/internal/model"
	"trxmining/internal/tron"
)

// TxManager runs fc inside a database transaction. *gorm.DB satisfies it
// directly; tests substitute a fake that invokes fc without a database.
type TxManager interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// UserLocker serializes balance-mutating operations per user. The returned
// func releases the lock.
type UserLocker interface {
	LockUser(ctx context.Context, userID int64) (func(), error)
}

// LedgerClient checks a payment transaction against expected parameters.
type LedgerClient interface {
	Verify(ctx context.Context, txHash string, expectedAmountSun int64, expectedToAddress string) (*tron.TransferInfo, error)
}

// PaymentVerifier is the retrying verification facade purchase flows use.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, txHash string, expectedAmountSun int64) (*tron.TransferInfo, error)
}

type UserStore interface {
	Create(tx *gorm.DB, user *model.User) error
	GetByID(tx *gorm.DB, id int64) (*model.User, error)
	GetByReferralCode(tx *gorm.DB, code string) (*model.User, error)
	CreditMineBalance(tx *gorm.DB, userID int64, amount int64) error
	CreditReferralReward(tx *gorm.DB, userID int64, amount int64) error
	DebitBalance(tx *gorm.DB, userID int64, balanceType string, amount int64) error
	SetHasActiveMining(tx *gorm.DB, userID int64) error
	SetHasBoughtNode4(tx *gorm.DB, userID int64) error
	IncrementTotalReferrals(tx *gorm.DB, userID int64) error
}

type NodeStore interface {
	Create(tx *gorm.DB, node *model.UserNode) error
	GetByTxHash(tx *gorm.DB, txHash string) (*model.UserNode, error)
	GetRunningByUserAndNode(tx *gorm.DB, userID int64, nodeID string) (*model.UserNode, error)
	ListByUserID(tx *gorm.DB, userID int64) ([]model.UserNode, error)
	Complete(tx *gorm.DB, nodeID int64) (bool, error)
	UpdateProgress(tx *gorm.DB, nodeID int64, progress float64) error
	GetRunningExpired(tx *gorm.DB, now time.Time, limit int) ([]model.UserNode, error)
}

type ReferralStore interface {
	Create(tx *gorm.DB, referral *model.Referral) error
	GetPendingByReferredID(tx *gorm.DB, referredID int64) (*model.Referral, error)
	Settle(tx *gorm.DB, referralID int64, activatedAt time.Time) (bool, error)
	ListByReferrerID(tx *gorm.DB, referrerID int64) ([]model.Referral, error)
}

type WithdrawalStore interface {
	Create(tx *gorm.DB, withdrawal *model.Withdrawal) error
	GetByTxHash(tx *gorm.DB, txHash string) (*model.Withdrawal, error)
	SetTxHash(tx *gorm.DB, withdrawalNo, txHash string) error
	ListByUserID(tx *gorm.DB, userID int64) ([]model.Withdrawal, error)
}

type VerificationLog interface {
	Append(tx *gorm.DB, v *model.TxVerification) error
}

type OutboxStore interface {
	Create(tx *gorm.DB, msg *model.OutboxMessage) error
}
