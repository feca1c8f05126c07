package repository

import (
	"context"
	"errors"

	"weavemart/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMilestoneClaimed means the referee's milestone flag was already set.
var ErrMilestoneClaimed = errors.New("referral milestone already credited")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// EnsureExists inserts the user row if it is missing and leaves an existing row untouched.
func (r *UserRepository) EnsureExists(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(u).Error
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByEmails returns the users found for the given emails, keyed by email.
func (r *UserRepository) ListByEmails(ctx context.Context, emails []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	var list []models.User
	if err := r.db.WithContext(ctx).Where("email IN ?", emails).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.Email] = u
	}
	return out, nil
}

// SetReferralCodeIfEmpty assigns code only when the user has none yet.
// It reports false when another writer assigned a code first.
func (r *UserRepository) SetReferralCodeIfEmpty(ctx context.Context, email, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND referral_code IS NULL", email).
		Update("referral_code", code)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// LinkReferee stores the referrer's code on a user that has not been linked yet.
func (r *UserRepository) LinkReferee(ctx context.Context, email, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND referee_code IS NULL", email).
		Update("referee_code", code)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreditMilestone flips the referee's one-shot milestone flag, credits the referee and credits
// the referrer, atomically. The flag-set is conditional on the flag still being false, so a
// second or concurrent call returns ErrMilestoneClaimed and credits nobody.
func (r *UserRepository) CreditMilestone(ctx context.Context, refereeEmail, referrerEmail string, refereePoints, referrerPoints int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("email = ? AND referral_milestone_reached = ?", refereeEmail, false).
			Updates(map[string]interface{}{
				"referral_score":             gorm.Expr("referral_score + ?", refereePoints),
				"referral_milestone_reached": true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrMilestoneClaimed
		}
		res = tx.Model(&models.User{}).
			Where("email = ?", referrerEmail).
			Updates(map[string]interface{}{
				"referral_score": gorm.Expr("referral_score + ?", referrerPoints),
				"referral_count": gorm.Expr("referral_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// TopByReferralScore returns non-admin users with the highest referral score.
func (r *UserRepository) TopByReferralScore(ctx context.Context, limit int) ([]models.User, error) {
	var list []models.User
	err := r.db.WithContext(ctx).
		Where("is_admin = ?", false).
		Order("referral_score DESC, email ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
