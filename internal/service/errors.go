package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAddress     = errors.New("service: malformed TRON address")
	ErrInvalidTxHash      = errors.New("service: malformed transaction hash")
	ErrInvalidNode        = errors.New("service: unknown mining node")
	ErrNodeAlreadyRunning = errors.New("service: node of this tier already running")
	ErrBelowMinimum       = errors.New("service: amount below withdrawal minimum")
	ErrGateNotMet         = errors.New("service: withdrawal requirements not met")
	ErrInvalidBalanceType = errors.New("service: unknown balance type")
	ErrInvalidReferral    = errors.New("service: unknown referral code")
)

// AlreadyUsedError reports that a transaction hash was spent before,
// carrying where and when for the caller's error message.
type AlreadyUsedError struct {
	Where string
	When  time.Time
}

func (e *AlreadyUsedError) Error() string {
	if e.When.IsZero() {
		return fmt.Sprintf("service: transaction already used for a %s", e.Where)
	}
	return fmt.Sprintf("service: transaction already used for a %s on %s", e.Where, e.When.UTC().Format(time.RFC3339))
}
