package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"weavemart/internal/domain"
	"weavemart/internal/models"
	"weavemart/pkg/cloudinary"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	uploads []string
	ttl     time.Duration
}

func (f *fakeAssets) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*cloudinary.UploadResult, error) {
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, folder+"/"+publicID)
	return &cloudinary.UploadResult{URL: "https://cdn.test/" + publicID, PublicID: folder + "/" + publicID}, nil
}

func (f *fakeAssets) SignedDownloadURL(publicID string, ttl time.Duration) (string, error) {
	f.ttl = ttl
	return "https://cdn.test/download/" + publicID, nil
}

func (f *fakeAssets) SignedUploadParams(folder, publicID string) (*cloudinary.UploadSignature, error) {
	return &cloudinary.UploadSignature{Folder: folder, PublicID: publicID, Signature: "sig"}, nil
}

func (f *fakeAssets) ThumbnailURL(publicID string) string {
	return "https://cdn.test/thumb/" + publicID
}

func (f *fixture) designService(assets cloudinary.Client) *DesignService {
	return NewDesignService(f.designs, f.users, f.txs, assets, AssetSettings{Folder: "designs/"}, f.opts)
}

func TestCreateDesignValidates(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com")
	svc := f.designService(&fakeAssets{})
	valid := CreateDesignInput{Title: "Ikat", Price: decimal.NewFromInt(120), PaymentMethod: domain.PaymentHybridHalf}

	bad := []CreateDesignInput{
		{Title: "  ", Price: decimal.NewFromInt(1), PaymentMethod: domain.PaymentCashFull},
		{Title: "Ikat", Price: decimal.Zero, PaymentMethod: domain.PaymentCashFull},
		{Title: "Ikat", Price: decimal.NewFromInt(1), PaymentMethod: "barter"},
	}
	for _, in := range bad {
		_, err := svc.Create(f.ctx, "seller@example.com", in)
		require.ErrorIs(t, err, ErrInvalidState)
	}

	_, err := svc.Create(f.ctx, "stranger@example.com", valid)
	require.ErrorIs(t, err, ErrNotFound)

	valid.AssetPublicID = "designs/seller/ikat"
	d, err := svc.Create(f.ctx, "seller@example.com", valid)
	require.NoError(t, err)
	require.Equal(t, domain.VerificationPending, d.VerificationStatus)
	require.Equal(t, domain.DefaultCategory, d.Category)
	require.Equal(t, "https://cdn.test/thumb/designs/seller/ikat", d.ThumbnailURL)
	require.Zero(t, f.reload(d.DesignID).TotalSold)
}

func TestColorVariantsShareBundleDiscount(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com")
	f.user("other@example.com")
	svc := f.designService(nil)

	orig, err := svc.Create(f.ctx, "seller@example.com", CreateDesignInput{Title: "Bandhani", Price: decimal.NewFromInt(80), PaymentMethod: domain.PaymentCashFull})
	require.NoError(t, err)
	_, err = svc.UpdateBundleDiscount(f.ctx, "seller@example.com", orig.DesignID, decimal.NewFromInt(15))
	require.NoError(t, err)

	variant, err := svc.Create(f.ctx, "seller@example.com", CreateDesignInput{
		Title: "Bandhani blue", Price: decimal.NewFromInt(80), PaymentMethod: domain.PaymentCashFull,
		ColorMatchingDesignID: orig.DesignID,
	})
	require.NoError(t, err)
	require.True(t, variant.IsColorMatching)
	require.Equal(t, orig.DesignID, *variant.ColorMatchingDesignID)
	requireDecimal(t, "15", variant.BundleDiscount)

	_, err = svc.Create(f.ctx, "other@example.com", CreateDesignInput{
		Title: "Copy", Price: decimal.NewFromInt(80), PaymentMethod: domain.PaymentCashFull,
		ColorMatchingDesignID: orig.DesignID,
	})
	require.ErrorIs(t, err, ErrNotAuthorized)

	ids, err := svc.UpdateBundleDiscount(f.ctx, "seller@example.com", variant.DesignID, decimal.NewFromInt(25))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{orig.DesignID, variant.DesignID}, ids)
	requireDecimal(t, "25", f.reload(orig.DesignID).BundleDiscount)
	requireDecimal(t, "25", f.reload(variant.DesignID).BundleDiscount)

	_, err = svc.UpdateBundleDiscount(f.ctx, "seller@example.com", orig.DesignID, decimal.NewFromInt(101))
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.UpdateBundleDiscount(f.ctx, "other@example.com", orig.DesignID, decimal.NewFromInt(5))
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestReviewRequiresDesigner(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com", func(u *models.User) { u.IsDesigner = true })
	f.user("reviewer@example.com", func(u *models.User) { u.IsDesigner = true })
	f.user("buyer@example.com")
	d := f.design("seller@example.com", "100", domain.PaymentCashFull, 0, 0, pending)
	svc := f.designService(nil)

	_, err := svc.Approve(f.ctx, "buyer@example.com", d.DesignID, "")
	require.ErrorIs(t, err, ErrNotAuthorized)
	_, err = svc.Approve(f.ctx, "ghost@example.com", d.DesignID, "")
	require.ErrorIs(t, err, ErrNotAuthorized)
	_, err = svc.Approve(f.ctx, "seller@example.com", d.DesignID, "")
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.Approve(f.ctx, "reviewer@example.com", "missing", "")
	require.ErrorIs(t, err, ErrNotFound)

	approved, err := svc.Approve(f.ctx, "reviewer@example.com", d.DesignID, "clean repeat")
	require.NoError(t, err)
	require.Equal(t, domain.VerificationVerified, approved.VerificationStatus)

	stored := f.reload(d.DesignID)
	require.Equal(t, domain.VerificationVerified, stored.VerificationStatus)
	require.Equal(t, "reviewer@example.com", stored.VerifiedBy)
	require.Equal(t, "clean repeat", stored.VerificationComments)
	require.NotNil(t, stored.VerifiedAt)

	_, err = svc.Reject(f.ctx, "reviewer@example.com", d.DesignID, "blurry")
	require.NoError(t, err)
	require.Equal(t, domain.VerificationRejected, f.reload(d.DesignID).VerificationStatus)
}

func TestDownloadURLForOwnerAndBuyers(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com")
	d := f.design("seller@example.com", "100", domain.PaymentCashFull, 0, 0, func(d *models.Design) {
		d.AssetPublicID = "designs/seller/file"
	})
	bare := f.design("seller@example.com", "100", domain.PaymentCashFull, 0, 0)
	assets := &fakeAssets{}
	svc := f.designService(assets)

	u, err := svc.DownloadURL(f.ctx, "seller@example.com", d.DesignID)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/download/designs/seller/file", u)
	require.Equal(t, time.Hour, assets.ttl)

	_, err = svc.DownloadURL(f.ctx, "buyer@example.com", d.DesignID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = NewTransactionService(f.txs, f.designs, f.opts).Record(f.ctx, "buyer@example.com", RecordPurchaseInput{DesignIDs: []string{d.DesignID}, ProviderRef: "pay_001"})
	require.NoError(t, err)
	_, err = svc.DownloadURL(f.ctx, "buyer@example.com", d.DesignID)
	require.NoError(t, err)

	_, err = svc.DownloadURL(f.ctx, "seller@example.com", bare.DesignID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.designService(nil).DownloadURL(f.ctx, "seller@example.com", d.DesignID)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.ErrorIs(t, err, ErrPersistence)
}

func TestUploadUsesSellerFolder(t *testing.T) {
	f := newFixture(t)
	assets := &fakeAssets{}
	svc := f.designService(assets)

	sig, err := svc.UploadParams(f.ctx, "weaver@example.com")
	require.NoError(t, err)
	require.Equal(t, "designs/weaver", sig.Folder)
	require.True(t, strings.HasPrefix(sig.PublicID, "design_"))

	res, err := svc.UploadAsset(f.ctx, "weaver@example.com", strings.NewReader("png"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.PublicID, "designs/weaver/design_"))
	require.Len(t, assets.uploads, 1)

	_, err = f.designService(nil).UploadParams(f.ctx, "weaver@example.com")
	require.ErrorIs(t, err, ErrStorageUnavailable)
}
