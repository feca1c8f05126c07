package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"weavemart/internal/domain"
	"weavemart/internal/models"
	"weavemart/internal/repository"
	"weavemart/pkg/cloudinary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	hundred = decimal.NewFromInt(100)

	ErrStorageUnavailable = fmt.Errorf("%w: object storage not configured", ErrPersistence)
)

type CreateDesignInput struct {
	Title                 string          `json:"title" binding:"required"`
	Category              string          `json:"category"`
	Price                 decimal.Decimal `json:"price"`
	PaymentMethod         string          `json:"payment_method" binding:"required"`
	AssetPublicID         string          `json:"asset_public_id"`
	ColorMatchingDesignID string          `json:"color_matching_design_id"`
}

// AssetSettings configures where design files live and how long download links last.
type AssetSettings struct {
	Folder      string
	DownloadTTL time.Duration
}

// DesignService covers design submission, review, bundle pricing and asset access.
type DesignService struct {
	designRepo *repository.DesignRepository
	userRepo   *repository.UserRepository
	txRepo     *repository.TransactionRepository
	assets     cloudinary.Client
	settings   AssetSettings
	opts       Options
}

func NewDesignService(
	designRepo *repository.DesignRepository,
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	assets cloudinary.Client,
	settings AssetSettings,
	opts Options,
) *DesignService {
	if settings.DownloadTTL <= 0 {
		settings.DownloadTTL = time.Hour
	}
	return &DesignService{
		designRepo: designRepo,
		userRepo:   userRepo,
		txRepo:     txRepo,
		assets:     assets,
		settings:   settings,
		opts:       opts.withDefaults(),
	}
}

// Create stores a new design awaiting review. Unknown payment methods are rejected here so
// they can never reach a payout.
func (s *DesignService) Create(ctx context.Context, sellerEmail string, in CreateDesignInput) (*models.Design, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidState)
	}
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidState)
	}
	if !KnownPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidState, in.PaymentMethod)
	}
	if _, err := s.userRepo.GetByEmail(ctx, sellerEmail); err != nil {
		return nil, storeErr("get seller", err)
	}

	d := &models.Design{
		DesignID:           uuid.NewString(),
		SellerEmail:        sellerEmail,
		Title:              title,
		Category:           categoryOf(in.Category),
		AssetPublicID:      in.AssetPublicID,
		Price:              in.Price.Round(2),
		PaymentMethod:      in.PaymentMethod,
		VerificationStatus: domain.VerificationPending,
		BundleDiscount:     decimal.Zero,
	}
	if in.AssetPublicID != "" && s.assets != nil {
		d.ThumbnailURL = s.assets.ThumbnailURL(in.AssetPublicID)
	}
	if in.ColorMatchingDesignID != "" {
		parent, err := s.designRepo.GetByID(ctx, in.ColorMatchingDesignID)
		if err != nil {
			return nil, storeErr("get original design", err)
		}
		if parent.SellerEmail != sellerEmail {
			return nil, ErrNotAuthorized
		}
		family := parent.FamilyID()
		d.ColorMatchingDesignID = &family
		d.IsColorMatching = true
		d.BundleDiscount = parent.BundleDiscount
	}
	if err := s.designRepo.Create(ctx, d); err != nil {
		return nil, storeErr("create design", err)
	}
	return d, nil
}

// Approve marks a design Verified. Only designers review, and never their own work.
func (s *DesignService) Approve(ctx context.Context, reviewerEmail, designID, comments string) (*models.Design, error) {
	return s.review(ctx, reviewerEmail, designID, domain.VerificationVerified, comments)
}

func (s *DesignService) Reject(ctx context.Context, reviewerEmail, designID, comments string) (*models.Design, error) {
	return s.review(ctx, reviewerEmail, designID, domain.VerificationRejected, comments)
}

func (s *DesignService) review(ctx context.Context, reviewerEmail, designID, status, comments string) (*models.Design, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	reviewer, err := s.userRepo.GetByEmail(ctx, reviewerEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, storeErr("get reviewer", err)
	}
	if !reviewer.IsDesigner {
		return nil, ErrNotAuthorized
	}
	d, err := s.designRepo.GetByID(ctx, designID)
	if err != nil {
		return nil, storeErr("get design", err)
	}
	if d.SellerEmail == reviewerEmail {
		return nil, fmt.Errorf("%w: cannot review your own design", ErrInvalidState)
	}
	now := s.opts.now()
	err = s.designRepo.Update(ctx, designID, map[string]interface{}{
		"verification_status":   status,
		"verified_by":           reviewerEmail,
		"verified_at":           now,
		"verification_comments": comments,
	})
	if err != nil {
		return nil, storeErr("update design", err)
	}
	d.VerificationStatus = status
	d.VerifiedBy = reviewerEmail
	d.VerifiedAt = &now
	d.VerificationComments = comments
	log.Infof("[design] %s %s by %s", designID, strings.ToLower(status), reviewerEmail)
	return d, nil
}

// UpdateBundleDiscount sets the discount on a design and every color variant of it.
func (s *DesignService) UpdateBundleDiscount(ctx context.Context, sellerEmail, designID string, discount decimal.Decimal) ([]string, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: bundle discount must be between 0 and 100", ErrInvalidState)
	}
	d, err := s.designRepo.GetByID(ctx, designID)
	if err != nil {
		return nil, storeErr("get design", err)
	}
	if d.SellerEmail != sellerEmail {
		return nil, ErrNotAuthorized
	}
	family, err := s.designRepo.ListFamily(ctx, d.FamilyID())
	if err != nil {
		return nil, storeErr("list color variants", err)
	}
	ids := make([]string, 0, len(family))
	for _, f := range family {
		if f.SellerEmail == sellerEmail {
			ids = append(ids, f.DesignID)
		}
	}
	if err := s.designRepo.UpdateMany(ctx, ids, map[string]interface{}{"bundle_discount": discount.Round(2)}); err != nil {
		return nil, storeErr("update bundle discount", err)
	}
	return ids, nil
}

// DownloadURL returns a time-limited link to the original file for its seller or a buyer.
func (s *DesignService) DownloadURL(ctx context.Context, email, designID string) (string, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	d, err := s.designRepo.GetByID(ctx, designID)
	if err != nil {
		return "", storeErr("get design", err)
	}
	if d.SellerEmail != email {
		bought, err := s.txRepo.HasPurchased(ctx, email, designID)
		if err != nil {
			return "", storeErr("check purchase", err)
		}
		if !bought {
			return "", ErrNotAuthorized
		}
	}
	if d.AssetPublicID == "" {
		return "", fmt.Errorf("design asset: %w", ErrNotFound)
	}
	if s.assets == nil {
		return "", ErrStorageUnavailable
	}
	u, err := s.assets.SignedDownloadURL(d.AssetPublicID, s.settings.DownloadTTL)
	if err != nil {
		return "", fmt.Errorf("sign download: %w: %v", ErrPersistence, err)
	}
	return u, nil
}

// UploadParams signs a direct upload of a new design file for the seller.
func (s *DesignService) UploadParams(ctx context.Context, sellerEmail string) (*cloudinary.UploadSignature, error) {
	if s.assets == nil {
		return nil, ErrStorageUnavailable
	}
	sig, err := s.assets.SignedUploadParams(s.sellerFolder(sellerEmail), newAssetID())
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w: %v", ErrPersistence, err)
	}
	return sig, nil
}

// UploadAsset pushes a design file through the server for clients that cannot upload directly.
func (s *DesignService) UploadAsset(ctx context.Context, sellerEmail string, file io.Reader) (*cloudinary.UploadResult, error) {
	if s.assets == nil {
		return nil, ErrStorageUnavailable
	}
	res, err := s.assets.UploadImage(ctx, file, s.sellerFolder(sellerEmail), newAssetID())
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w: %v", ErrPersistence, err)
	}
	return res, nil
}

func (s *DesignService) sellerFolder(sellerEmail string) string {
	local := sellerEmail
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	return strings.TrimSuffix(s.settings.Folder, "/") + "/" + local
}

func newAssetID() string {
	return "design_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
