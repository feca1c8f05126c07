package repository

import (
	"context"
	"errors"

	"weavemart/internal/models"

	"gorm.io/gorm"
)

// ErrWatermarkMoved means a design's last_payout_sold changed after the settlement snapshot was taken.
var ErrWatermarkMoved = errors.New("design watermark moved since snapshot")

type PaymentHistoryRepository struct {
	db *gorm.DB
}

func NewPaymentHistoryRepository(db *gorm.DB) *PaymentHistoryRepository {
	return &PaymentHistoryRepository{db: db}
}

// RecordSettlement inserts the history row with its paid designs and moves every design's
// watermark from FromSold to TargetSold, all in one transaction. If any watermark no longer
// matches its snapshot the whole settlement is rolled back with ErrWatermarkMoved.
func (r *PaymentHistoryRepository) RecordSettlement(ctx context.Context, h *models.PaymentHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		for _, pd := range h.PaidDesigns {
			res := tx.Model(&models.Design{}).
				Where("design_id = ? AND last_payout_sold = ? AND total_sold >= ?", pd.DesignID, pd.FromSold, pd.TargetSold).
				Update("last_payout_sold", pd.TargetSold)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrWatermarkMoved
			}
		}
		return nil
	})
}

func (r *PaymentHistoryRepository) GetByID(ctx context.Context, paymentID string) (*models.PaymentHistory, error) {
	var h models.PaymentHistory
	err := r.db.WithContext(ctx).Preload("PaidDesigns").Where("payment_id = ?", paymentID).First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PaymentHistoryRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.PaymentHistory, error) {
	var h models.PaymentHistory
	err := r.db.WithContext(ctx).Preload("PaidDesigns").Where("idempotency_key = ?", key).First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListBySeller returns a seller's payment history, newest first.
func (r *PaymentHistoryRepository) ListBySeller(ctx context.Context, sellerEmail string) ([]models.PaymentHistory, error) {
	var list []models.PaymentHistory
	err := r.db.WithContext(ctx).
		Preload("PaidDesigns").
		Where("seller_email = ?", sellerEmail).
		Order("payment_date DESC").
		Find(&list).Error
	return list, err
}
