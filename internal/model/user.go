package model

import (
	"time"
)

const (
	BalanceMine     = "MINE"
	BalanceReferral = "REFERRAL"
)

// User holds the two independent balances (mining and referral, in SUN)
// and the gating flags checked on withdrawal.
type User struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password        string    `gorm:"type:varchar(100);not null" json:"-"`
	MineBalance     int64     `gorm:"not null;default:0" json:"mine_balance"`
	ReferralBalance int64     `gorm:"not null;default:0" json:"referral_balance"`
	TotalReferrals  int       `gorm:"not null;default:0" json:"total_referrals"`
	ValidReferrals  int       `gorm:"not null;default:0" json:"valid_referrals"`
	ReferralCode    string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"referral_code"`
	HasActiveMining bool      `gorm:"not null;default:false" json:"has_active_mining"`
	HasBoughtNode4  bool      `gorm:"not null;default:false" json:"has_bought_node4"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Balance(kind string) int64 {
	if kind == BalanceReferral {
		return u.ReferralBalance
	}
	return u.MineBalance
}
