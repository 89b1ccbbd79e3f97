package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrUserNotFound        = errors.New("repository: user not found")
	ErrUsernameTaken       = errors.New("repository: username already taken")
	ErrTxHashUsed          = errors.New("repository: transaction hash already used")
	ErrInsufficientBalance = errors.New("repository: insufficient balance")
	ErrReferralExists      = errors.New("repository: referral already exists")
	ErrWithdrawalNotFound  = errors.New("repository: withdrawal not found or payout already recorded")
)

const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique-constraint violation.
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
