package repository

import (
	"context"

	"weavemart/internal/domain"
	"weavemart/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create stores the transaction and, when it is COMPLETED, bumps total_sold on every purchased
// design in the same database transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if t.Status != domain.TransactionCompleted {
			return nil
		}
		for _, item := range t.Items {
			res := tx.Model(&models.Design{}).
				Where("design_id = ?", item.DesignID).
				UpdateColumn("total_sold", gorm.Expr("total_sold + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).Preload("Items").Where("transaction_id = ?", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// HasPurchased reports whether buyer has a COMPLETED transaction containing the design.
func (r *TransactionRepository) HasPurchased(ctx context.Context, buyerEmail, designID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TransactionItem{}).
		Joins("JOIN transactions ON transactions.transaction_id = transaction_items.transaction_id").
		Where("transactions.buyer_email = ? AND transactions.status = ? AND transaction_items.design_id = ?",
			buyerEmail, domain.TransactionCompleted, designID).
		Count(&n).Error
	return n > 0, err
}
