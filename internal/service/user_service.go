package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trxmining/internal/config"
	"trxmining/internal/model"
	"trxmining/internal/repository"
)

// UserService handles signup and profile reads. Authentication itself is
// delegated to the edge; handlers pass an already authenticated user id.
type UserService struct {
	txm       TxManager
	users     UserStore
	referrals *ReferralService
	bonusSun  int64
}

func NewUserService(txm TxManager, users UserStore, referrals *ReferralService, cfg *config.BusinessConfig) *UserService {
	return &UserService{
		txm:       txm,
		users:     users,
		referrals: referrals,
		bonusSun:  model.TRXToSun(cfg.SignupBonusTRX),
	}
}

// Signup creates the user with the signup bonus already on the mining
// balance and, when a referral code is given, the pending referral row.
func (s *UserService) Signup(ctx context.Context, username, password, referralCode string) (*model.User, error) {
	var referrer *model.User
	if referralCode != "" {
		found, err := s.users.GetByReferralCode(nil, strings.ToUpper(referralCode))
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidReferral
		}
		if err != nil {
			return nil, err
		}
		referrer = found
	}

	user := &model.User{
		Username:     username,
		Password:     password,
		MineBalance:  s.bonusSun,
		ReferralCode: newReferralCode(),
	}

	err := s.txm.Transaction(func(tx *gorm.DB) error {
		if err := s.users.Create(tx, user); err != nil {
			return err
		}
		if referrer != nil {
			return s.referrals.CreateSignupReferral(tx, referrer.ID, user.ID, referrer.ReferralCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(nil, userID)
}

// newReferralCode takes the first uuid segment, which is 8 hex chars.
func newReferralCode() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}
