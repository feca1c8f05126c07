package models

import (
	"time"

	"weavemart/internal/domain"
)

// User is keyed by the email the identity provider verified.
type User struct {
	Email                    string    `gorm:"primaryKey;size:255" json:"email"`
	Username                 string    `gorm:"size:64;not null;default:''" json:"username"`
	IsDesigner               bool      `gorm:"not null;default:false" json:"is_designer"`
	IsAdmin                  bool      `gorm:"not null;default:false" json:"is_admin"`
	IsVerified               string    `gorm:"size:20;not null;default:'UNVERIFIED';index" json:"is_verified"`
	UPIID                    string    `gorm:"column:upi_id;size:128" json:"-"`
	ReferralCode             *string   `gorm:"uniqueIndex;size:20" json:"referral_code"`
	RefereeCode              *string   `gorm:"size:20;index" json:"referee_code,omitempty"`
	ReferralScore            int64     `gorm:"not null;default:0" json:"referral_score"`
	ReferralCount            int64     `gorm:"not null;default:0" json:"referral_count"`
	ReferralMilestoneReached bool      `gorm:"not null;default:false" json:"referral_milestone_reached"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) HasReferee() bool { return u.RefereeCode != nil && *u.RefereeCode != "" }

func (u *User) Code() string {
	if u.ReferralCode == nil {
		return ""
	}
	return *u.ReferralCode
}

func (u *User) IsSellerVerified() bool { return u.IsVerified == domain.UserVerified }
