package service

import (
	"context"
	"errors"
	"log"
	"time"

	"trxmining/internal/config"
	"trxmining/internal/model"
	"trxmining/internal/tron"
)

// VerificationService wraps the ledger client with the retry policy and the
// append-only attempt log. Only transient failures are retried; a mismatch
// in amount, recipient, type or age is final on the first look.
type VerificationService struct {
	client        LedgerClient
	log           VerificationLog
	walletAddress string
	maxRetries    int
	baseDelay     time.Duration
}

func NewVerificationService(client LedgerClient, verificationLog VerificationLog, cfg *config.TronConfig) *VerificationService {
	return &VerificationService{
		client:        client,
		log:           verificationLog,
		walletAddress: cfg.WalletAddress,
		maxRetries:    cfg.MaxRetries,
		baseDelay:     time.Duration(cfg.RetryDelayMs) * time.Millisecond,
	}
}

// VerifyPayment checks that txHash pays exactly expectedAmountSun to the
// platform wallet. Every attempt, successful or not, leaves an audit row.
func (s *VerificationService) VerifyPayment(ctx context.Context, txHash string, expectedAmountSun int64) (*tron.TransferInfo, error) {
	if !tron.IsValidTxHash(txHash) {
		err := &tron.VerificationError{Kind: tron.KindInvalidInput, Detail: "transaction hash must be 64 hex characters"}
		s.record(txHash, 1, nil, err)
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		info, err := s.client.Verify(ctx, txHash, expectedAmountSun, s.walletAddress)
		s.record(txHash, attempt, info, err)
		if err == nil {
			return info, nil
		}
		lastErr = err

		var verr *tron.VerificationError
		if errors.As(err, &verr) && !verr.Retryable() {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}

		delay := s.baseDelay * time.Duration(attempt)
		log.Printf("[Verification] tx=%s attempt %d failed, retrying in %s: %v", txHash, attempt, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (s *VerificationService) record(txHash string, attempt int, info *tron.TransferInfo, verifyErr error) {
	row := &model.TxVerification{
		TxHash:  txHash,
		Attempt: attempt,
		Status:  model.VerificationStatusVerified,
	}
	if verifyErr != nil {
		row.Status = model.VerificationStatusFailed
		row.ErrorMessage = verifyErr.Error()
		var verr *tron.VerificationError
		if errors.As(verifyErr, &verr) {
			row.ErrorKind = string(verr.Kind)
		}
	}
	if info != nil {
		row.Amount = info.AmountSun
		row.FromAddress = info.FromAddress
		row.ToAddress = info.ToAddress
		blockTime := info.BlockTime
		row.BlockTime = &blockTime
	}
	if err := s.log.Append(nil, row); err != nil {
		log.Printf("[Verification] failed to record attempt for tx=%s: %v", txHash, err)
	}
}
