package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentHistory is the append-only audit record of one payout settlement.
// Rows are never updated or deleted.
type PaymentHistory struct {
	PaymentID      string          `gorm:"primaryKey;size:128" json:"payment_id"`
	SellerEmail    string          `gorm:"size:255;not null;index" json:"seller_email"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	TotalCredits   int64           `gorm:"not null" json:"total_credits"`
	PaymentDate    time.Time       `gorm:"not null;index" json:"payment_date"`
	AdminEmail     string          `gorm:"size:255;not null" json:"admin_email"`
	TransactionID  string          `gorm:"size:128" json:"transaction_id"`
	Notes          string          `gorm:"type:text" json:"notes"`
	IdempotencyKey *string         `gorm:"uniqueIndex;size:128" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`

	PaidDesigns []PaidDesign `gorm:"foreignKey:PaymentID;references:PaymentID" json:"paid_designs"`
}

func (PaymentHistory) TableName() string { return "payment_histories" }

// PaidDesign is one line of a settlement. FromSold/TargetSold record the
// watermark move the settlement owns for that design.
type PaidDesign struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	PaymentID     string          `gorm:"size:128;not null;index" json:"-"`
	DesignID      string          `gorm:"size:64;not null;index" json:"design_id"`
	Title         string          `gorm:"size:255" json:"title"`
	Category      string          `gorm:"size:64" json:"category"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	SalesCount    int64           `gorm:"not null" json:"sales_count"`
	ImageURL      string          `gorm:"size:512" json:"image_url"`
	PaymentMethod string          `gorm:"size:20" json:"payment_method"`
	FromSold      int64           `gorm:"not null" json:"-"`
	TargetSold    int64           `gorm:"not null" json:"-"`
}

func (PaidDesign) TableName() string { return "paid_designs" }

// Revenue is price x sales_count.
func (p PaidDesign) Revenue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.SalesCount))
}
