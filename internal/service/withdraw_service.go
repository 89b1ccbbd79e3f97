package service

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"trxmining/internal/config"
	"trxmining/internal/model"
	"trxmining/internal/repository"
	"trxmining/internal/tron"
	"trxmining/pkg/idgen"
)

// WithdrawService debits a balance and appends the withdrawal ledger entry
// under a per-user lock, with the minimum and eligibility gates checked on
// the way in and the conditional debit as the last line of defense.
type WithdrawService struct {
	txm            TxManager
	locker         UserLocker
	users          UserStore
	withdrawals    WithdrawalStore
	outbox         OutboxStore
	mineMinSun     int64
	referralMinSun int64
	topics         config.KafkaTopicConfig
}

func NewWithdrawService(
	txm TxManager,
	locker UserLocker,
	users UserStore,
	withdrawals WithdrawalStore,
	outbox OutboxStore,
	cfg *config.BusinessConfig,
	topics config.KafkaTopicConfig,
) *WithdrawService {
	return &WithdrawService{
		txm:            txm,
		locker:         locker,
		users:          users,
		withdrawals:    withdrawals,
		outbox:         outbox,
		mineMinSun:     model.TRXToSun(cfg.MineWithdrawMinTRX),
		referralMinSun: model.TRXToSun(cfg.ReferralWithdrawMinTRX),
		topics:         topics,
	}
}

type withdrawalCompletedEvent struct {
	WithdrawalNo string `json:"withdrawal_no"`
	UserID       int64  `json:"user_id"`
	BalanceType  string `json:"balance_type"`
	AmountSun    int64  `json:"amount_sun"`
	ToAddress    string `json:"to_address"`
}

// Withdraw moves amountSun off the chosen balance to toAddress.
func (s *WithdrawService) Withdraw(ctx context.Context, userID int64, balanceType string, amountSun int64, toAddress string) (*model.Withdrawal, error) {
	if balanceType != model.BalanceMine && balanceType != model.BalanceReferral {
		return nil, ErrInvalidBalanceType
	}
	if !tron.IsValidAddress(toAddress) {
		return nil, ErrInvalidAddress
	}
	minimum := s.mineMinSun
	if balanceType == model.BalanceReferral {
		minimum = s.referralMinSun
	}
	if amountSun < minimum {
		return nil, ErrBelowMinimum
	}

	unlock, err := s.locker.LockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	user, err := s.users.GetByID(nil, userID)
	if err != nil {
		return nil, err
	}
	if balanceType == model.BalanceMine && !user.HasActiveMining {
		return nil, ErrGateNotMet
	}
	if balanceType == model.BalanceReferral && !user.HasBoughtNode4 {
		return nil, ErrGateNotMet
	}
	// Early read for a clean error; the conditional debit below still
	// decides under concurrency.
	if user.Balance(balanceType) < amountSun {
		return nil, repository.ErrInsufficientBalance
	}

	withdrawal := &model.Withdrawal{
		WithdrawalNo: idgen.GenerateWithdrawalNo(),
		UserID:       userID,
		BalanceType:  balanceType,
		Amount:       amountSun,
		ToAddress:    toAddress,
		Status:       model.WithdrawalStatusCompleted,
	}

	err = s.txm.Transaction(func(tx *gorm.DB) error {
		if err := s.users.DebitBalance(tx, userID, balanceType, amountSun); err != nil {
			return err
		}
		if err := s.withdrawals.Create(tx, withdrawal); err != nil {
			return err
		}
		payload, _ := json.Marshal(withdrawalCompletedEvent{
			WithdrawalNo: withdrawal.WithdrawalNo,
			UserID:       userID,
			BalanceType:  balanceType,
			AmountSun:    amountSun,
			ToAddress:    toAddress,
		})
		return s.outbox.Create(tx, &model.OutboxMessage{
			MessageKey: withdrawal.WithdrawalNo,
			Topic:      s.topics.WithdrawalCompleted,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		})
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (s *WithdrawService) ListWithdrawals(ctx context.Context, userID int64) ([]model.Withdrawal, error) {
	return s.withdrawals.ListByUserID(nil, userID)
}

// RecordPayoutTx attaches the executed on-chain payout hash to a
// withdrawal. From then on the hash counts as spent for purchases too.
func (s *WithdrawService) RecordPayoutTx(ctx context.Context, withdrawalNo, txHash string) error {
	if !tron.IsValidTxHash(txHash) {
		return ErrInvalidTxHash
	}
	return s.withdrawals.SetTxHash(nil, withdrawalNo, txHash)
}
