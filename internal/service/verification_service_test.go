package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trxmining/internal/config"
	"trxmining/internal/model"
	"trxmining/internal/tron"
)

const testTxHash = "7c2d4206c03a60b1b2e1c1a1f2aab4b0a0d24a26bcb1b3f4f5a6b7c8d9e0f1a2"

func testTronConfig() *config.TronConfig {
	return &config.TronConfig{
		WalletAddress: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
		MaxRetries:    3,
		RetryDelayMs:  1,
	}
}

func transientErr() *tron.VerificationError {
	return &tron.VerificationError{Kind: tron.KindServiceUnavailable, Detail: "api returned status 502"}
}

func TestVerifyPayment_SuccessFirstAttempt(t *testing.T) {
	ledger := &fakeLedger{results: []ledgerResult{
		{info: &tron.TransferInfo{TxHash: testTxHash, AmountSun: 50_000_000, BlockTime: time.Now()}},
	}}
	auditLog := &fakeVerLog{}
	svc := NewVerificationService(ledger, auditLog, testTronConfig())

	info, err := svc.VerifyPayment(context.Background(), testTxHash, 50_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000_000), info.AmountSun)
	assert.Equal(t, 1, ledger.calls)

	require.Len(t, auditLog.rows, 1)
	assert.Equal(t, model.VerificationStatusVerified, auditLog.rows[0].Status)
	assert.Equal(t, 1, auditLog.rows[0].Attempt)
}

func TestVerifyPayment_RetriesTransientThenSucceeds(t *testing.T) {
	ledger := &fakeLedger{results: []ledgerResult{
		{err: transientErr()},
		{err: transientErr()},
		{info: &tron.TransferInfo{TxHash: testTxHash, AmountSun: 50_000_000, BlockTime: time.Now()}},
	}}
	auditLog := &fakeVerLog{}
	svc := NewVerificationService(ledger, auditLog, testTronConfig())

	_, err := svc.VerifyPayment(context.Background(), testTxHash, 50_000_000)
	require.NoError(t, err)
	assert.Equal(t, 3, ledger.calls)

	require.Len(t, auditLog.rows, 3)
	assert.Equal(t, model.VerificationStatusFailed, auditLog.rows[0].Status)
	assert.Equal(t, string(tron.KindServiceUnavailable), auditLog.rows[0].ErrorKind)
	assert.Equal(t, model.VerificationStatusVerified, auditLog.rows[2].Status)
}

func TestVerifyPayment_NotFoundIsDefinitive(t *testing.T) {
	ledger := &fakeLedger{results: []ledgerResult{
		{err: &tron.VerificationError{Kind: tron.KindNotFound, Detail: "transaction not found"}},
	}}
	auditLog := &fakeVerLog{}
	svc := NewVerificationService(ledger, auditLog, testTronConfig())

	_, err := svc.VerifyPayment(context.Background(), testTxHash, 50_000_000)
	require.Error(t, err)
	// A missing transaction is answered by the ledger, not a fault: one
	// attempt, no backoff.
	assert.Equal(t, 1, ledger.calls)
	require.Len(t, auditLog.rows, 1)

	var verr *tron.VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, tron.KindNotFound, verr.Kind)
}

func TestVerifyPayment_DefinitiveFailureNotRetried(t *testing.T) {
	ledger := &fakeLedger{results: []ledgerResult{
		{err: &tron.VerificationError{Kind: tron.KindAmountMismatch, Detail: "paid 1, expected 2"}},
	}}
	auditLog := &fakeVerLog{}
	svc := NewVerificationService(ledger, auditLog, testTronConfig())

	_, err := svc.VerifyPayment(context.Background(), testTxHash, 50_000_000)
	require.Error(t, err)
	assert.Equal(t, 1, ledger.calls)

	var verr *tron.VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, tron.KindAmountMismatch, verr.Kind)
}

func TestVerifyPayment_ExhaustsRetries(t *testing.T) {
	ledger := &fakeLedger{results: []ledgerResult{
		{err: transientErr()},
		{err: transientErr()},
		{err: transientErr()},
	}}
	auditLog := &fakeVerLog{}
	svc := NewVerificationService(ledger, auditLog, testTronConfig())

	_, err := svc.VerifyPayment(context.Background(), testTxHash, 50_000_000)
	require.Error(t, err)
	assert.Equal(t, 3, ledger.calls)
	assert.Len(t, auditLog.rows, 3)
}

func TestVerifyPayment_MalformedHashFailsFast(t *testing.T) {
	ledger := &fakeLedger{}
	auditLog := &fakeVerLog{}
	svc := NewVerificationService(ledger, auditLog, testTronConfig())

	_, err := svc.VerifyPayment(context.Background(), "not-a-hash", 50_000_000)
	require.Error(t, err)
	assert.Equal(t, 0, ledger.calls)

	var verr *tron.VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, tron.KindInvalidInput, verr.Kind)

	require.Len(t, auditLog.rows, 1)
	assert.Equal(t, model.VerificationStatusFailed, auditLog.rows[0].Status)
}

func TestVerifyPayment_ContextCancelledDuringBackoff(t *testing.T) {
	ledger := &fakeLedger{results: []ledgerResult{
		{err: transientErr()},
	}}
	cfg := testTronConfig()
	cfg.RetryDelayMs = 200
	svc := NewVerificationService(ledger, &fakeVerLog{}, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.VerifyPayment(ctx, testTxHash, 50_000_000)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, ledger.calls)
}
