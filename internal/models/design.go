package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Design is a textile design listed by a seller.
// TotalSold is bumped by completed purchases; LastPayoutSold only moves when a payout settles.
type Design struct {
	DesignID              string          `gorm:"primaryKey;size:64" json:"design_id"`
	SellerEmail           string          `gorm:"size:255;not null;index" json:"seller_email"`
	Title                 string          `gorm:"size:255;not null" json:"title"`
	Category              string          `gorm:"size:64;index" json:"category"`
	AssetPublicID         string          `gorm:"size:255" json:"-"`
	ThumbnailURL          string          `gorm:"size:512" json:"thumbnail_url"`
	Price                 decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	PaymentMethod         string          `gorm:"size:20;not null" json:"payment_method"`
	VerificationStatus    string          `gorm:"size:20;not null;index" json:"verification_status"`
	VerifiedBy            string          `gorm:"size:255" json:"verified_by,omitempty"`
	VerifiedAt            *time.Time      `json:"verified_at,omitempty"`
	VerificationComments  string          `gorm:"type:text" json:"verification_comments,omitempty"`
	TotalSold             int64           `gorm:"not null;default:0" json:"total_sold"`
	LastPayoutSold        int64           `gorm:"not null;default:0" json:"last_payout_sold"`
	BundleDiscount        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"bundle_discount"`
	ColorMatchingDesignID *string         `gorm:"size:64;index" json:"color_matching_design_id,omitempty"`
	IsColorMatching       bool            `gorm:"not null;default:false" json:"is_color_matching"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (Design) TableName() string { return "designs" }

// FamilyID is the id of the original design a color variant belongs to.
func (d *Design) FamilyID() string {
	if d.IsColorMatching && d.ColorMatchingDesignID != nil && *d.ColorMatchingDesignID != "" {
		return *d.ColorMatchingDesignID
	}
	return d.DesignID
}
