package model

import (
	"time"
)

// Referral links a referrer to a referred user. It is created pending at
// signup and settled at most once, on the referred user's first verified
// purchase. IsValid and RewardPaid transition false->true together and
// never back.
type Referral struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerID   int64      `gorm:"not null;uniqueIndex:idx_referrer_referred,priority:1" json:"referrer_id"`
	ReferredID   int64      `gorm:"not null;uniqueIndex:idx_referrer_referred,priority:2;index" json:"referred_id"`
	ReferralCode string     `gorm:"type:varchar(16);not null" json:"referral_code"`
	IsValid      bool       `gorm:"not null;default:false" json:"is_valid"`
	RewardPaid   bool       `gorm:"not null;default:false" json:"reward_paid"`
	RewardAmount int64      `gorm:"not null" json:"reward_amount"`
	ActivatedAt  *time.Time `json:"activated_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Referral) TableName() string {
	return "referrals"
}
