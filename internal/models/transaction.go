package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a buyer's purchase of one or more designs.
type Transaction struct {
	TransactionID string          `gorm:"primaryKey;size:64" json:"transaction_id"`
	BuyerEmail    string          `gorm:"size:255;not null;index" json:"buyer_email"`
	Status        string          `gorm:"size:20;not null;index" json:"status"` // COMPLETED, PENDING, FAILED
	ProviderRef   string          `gorm:"size:128" json:"provider_ref"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;references:TransactionID" json:"designs"`
}

func (Transaction) TableName() string { return "transactions" }

type TransactionItem struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	TransactionID string          `gorm:"size:64;not null;index" json:"-"`
	DesignID      string          `gorm:"size:64;not null;index" json:"design_id"`
	Title         string          `gorm:"size:255" json:"title"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (TransactionItem) TableName() string { return "transaction_items" }
