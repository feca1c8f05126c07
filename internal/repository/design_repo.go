package repository

import (
	"context"

	"weavemart/internal/domain"
	"weavemart/internal/models"

	"gorm.io/gorm"
)

type DesignRepository struct {
	db *gorm.DB
}

func NewDesignRepository(db *gorm.DB) *DesignRepository {
	return &DesignRepository{db: db}
}

func (r *DesignRepository) Create(ctx context.Context, d *models.Design) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DesignRepository) GetByID(ctx context.Context, id string) (*models.Design, error) {
	var d models.Design
	err := r.db.WithContext(ctx).Where("design_id = ?", id).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListVerifiedBySeller returns a seller's Verified designs ordered by id.
func (r *DesignRepository) ListVerifiedBySeller(ctx context.Context, sellerEmail string) ([]models.Design, error) {
	var list []models.Design
	err := r.db.WithContext(ctx).
		Where("seller_email = ? AND verification_status = ?", sellerEmail, domain.VerificationVerified).
		Order("design_id ASC").
		Find(&list).Error
	return list, err
}

func (r *DesignRepository) CountVerifiedBySeller(ctx context.Context, sellerEmail string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Design{}).
		Where("seller_email = ? AND verification_status = ?", sellerEmail, domain.VerificationVerified).
		Count(&n).Error
	return n, err
}

// ListVerified returns every Verified design, for cross-seller rollups.
func (r *DesignRepository) ListVerified(ctx context.Context) ([]models.Design, error) {
	var list []models.Design
	err := r.db.WithContext(ctx).
		Where("verification_status = ?", domain.VerificationVerified).
		Order("seller_email ASC, design_id ASC").
		Find(&list).Error
	return list, err
}

// SellersWithUnpaidSales lists sellers owning at least one Verified design sold past its watermark.
func (r *DesignRepository) SellersWithUnpaidSales(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&models.Design{}).
		Where("verification_status = ? AND total_sold > last_payout_sold", domain.VerificationVerified).
		Distinct().
		Order("seller_email ASC").
		Pluck("seller_email", &emails).Error
	return emails, err
}

// ListFamily returns the original design and all of its color-matching variants.
func (r *DesignRepository) ListFamily(ctx context.Context, familyID string) ([]models.Design, error) {
	var list []models.Design
	err := r.db.WithContext(ctx).
		Where("design_id = ? OR color_matching_design_id = ?", familyID, familyID).
		Find(&list).Error
	return list, err
}

func (r *DesignRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Design{}).Where("design_id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DesignRepository) UpdateMany(ctx context.Context, ids []string, updates map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Design{}).Where("design_id IN ?", ids).Updates(updates).Error
}

// AdvanceWatermark raises last_payout_sold to target when it is still below it.
// It never lowers the watermark and never moves it past total_sold.
func (r *DesignRepository) AdvanceWatermark(ctx context.Context, id string, target int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Design{}).
		Where("design_id = ? AND last_payout_sold < ? AND total_sold >= ?", id, target, target).
		Update("last_payout_sold", target)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
