package service

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"trxmining/internal/config"
	"trxmining/internal/model"
	"trxmining/pkg/idgen"
)

// ReferralService creates pending referrals at signup and settles each one
// at most once, on the referred user's first verified purchase.
type ReferralService struct {
	txm       TxManager
	users     UserStore
	referrals ReferralStore
	outbox    OutboxStore
	rewardSun int64
	topics    config.KafkaTopicConfig
}

func NewReferralService(
	txm TxManager,
	users UserStore,
	referrals ReferralStore,
	outbox OutboxStore,
	rewardSun int64,
	topics config.KafkaTopicConfig,
) *ReferralService {
	return &ReferralService{
		txm:       txm,
		users:     users,
		referrals: referrals,
		outbox:    outbox,
		rewardSun: rewardSun,
		topics:    topics,
	}
}

type referralSettledEvent struct {
	ReferralID int64  `json:"referral_id"`
	ReferrerID int64  `json:"referrer_id"`
	ReferredID int64  `json:"referred_id"`
	RewardSun  int64  `json:"reward_sun"`
	SettledAt  string `json:"settled_at"`
}

// CreateSignupReferral records the pending relationship and bumps the
// referrer's total. No balance moves here; the reward waits for the first
// verified purchase.
func (s *ReferralService) CreateSignupReferral(tx *gorm.DB, referrerID, referredID int64, code string) error {
	referral := &model.Referral{
		ReferrerID:   referrerID,
		ReferredID:   referredID,
		ReferralCode: code,
		RewardAmount: s.rewardSun,
	}
	if err := s.referrals.Create(tx, referral); err != nil {
		return err
	}
	return s.users.IncrementTotalReferrals(tx, referrerID)
}

// SettleFirstPurchase pays the pending referral naming referredID, if one
// exists. The guarded update in Settle is the exactly-once point: only the
// caller that wins the false -> true transition credits the referrer.
func (s *ReferralService) SettleFirstPurchase(ctx context.Context, referredID int64) error {
	referral, err := s.referrals.GetPendingByReferredID(nil, referredID)
	if err != nil {
		return err
	}
	if referral == nil {
		return nil
	}

	now := time.Now()
	return s.txm.Transaction(func(tx *gorm.DB) error {
		won, err := s.referrals.Settle(tx, referral.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		if err := s.users.CreditReferralReward(tx, referral.ReferrerID, referral.RewardAmount); err != nil {
			return err
		}
		payload, _ := json.Marshal(referralSettledEvent{
			ReferralID: referral.ID,
			ReferrerID: referral.ReferrerID,
			ReferredID: referral.ReferredID,
			RewardSun:  referral.RewardAmount,
			SettledAt:  now.UTC().Format(time.RFC3339),
		})
		return s.outbox.Create(tx, &model.OutboxMessage{
			MessageKey: idgen.GenerateReferralNo(),
			Topic:      s.topics.ReferralSettled,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		})
	})
}

func (s *ReferralService) ListReferrals(ctx context.Context, referrerID int64) ([]model.Referral, error) {
	return s.referrals.ListByReferrerID(nil, referrerID)
}
