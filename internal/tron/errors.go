package tron

import "fmt"

// ErrorKind classifies a verification failure. Only transient kinds are
// worth retrying; all others describe the transaction itself and will not
// change on a second look.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindTransactionFailed  ErrorKind = "TRANSACTION_FAILED"
	KindWrongContractType  ErrorKind = "WRONG_CONTRACT_TYPE"
	KindAmountMismatch     ErrorKind = "AMOUNT_MISMATCH"
	KindRecipientMismatch  ErrorKind = "RECIPIENT_MISMATCH"
	KindStale              ErrorKind = "STALE"
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE"
)

type VerificationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("tron: %s: %s", e.Kind, e.Detail)
}

// Retryable reports whether another attempt could possibly succeed. Only
// transport-level trouble qualifies; a missing transaction is a definitive
// answer from the ledger, not a transient fault.
func (e *VerificationError) Retryable() bool {
	return e.Kind == KindServiceUnavailable
}

func newError(kind ErrorKind, format string, args ...interface{}) *VerificationError {
	return &VerificationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
