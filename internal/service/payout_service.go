package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"weavemart/internal/domain"
	"weavemart/internal/metrics"
	"weavemart/internal/models"
	"weavemart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DueLine is one design's share of what a seller is owed.
type DueLine struct {
	DesignID      string          `json:"design_id"`
	Title         string          `json:"title"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	SalesCount    int64           `json:"sales_count"`
	ImageURL      string          `json:"image_url"`
	PaymentMethod string          `json:"payment_method"`
	Cash          decimal.Decimal `json:"cash"`
	Credits       int64           `json:"credits"`
	FromSold      int64           `json:"from_sold"`
	TargetSold    int64           `json:"target_sold"`
}

// Due is the amount owed to a seller as observed at one point in time.
type Due struct {
	SellerEmail  string          `json:"seller_email"`
	TotalCash    decimal.Decimal `json:"total_amount"`
	TotalCredits int64           `json:"total_credits"`
	Orders       int64           `json:"orders"`
	Gross        decimal.Decimal `json:"gross"`
	Designs      []DueLine       `json:"designs"`
}

type SellerDue struct {
	Email       string          `json:"email"`
	Username    string          `json:"username"`
	IsDesigner  bool            `json:"is_designer"`
	DesignsSold int64           `json:"designs_sold"`
	PaymentDue  decimal.Decimal `json:"payment_due"`
	CreditsDue  int64           `json:"credits_due"`
}

type SellerDesign struct {
	models.Design
	UnpaidSales int64           `json:"unpaid_sales"`
	CashDue     decimal.Decimal `json:"cash_due"`
	CreditsDue  int64           `json:"credits_due"`
}

type PayoutDetails struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	UPIID       string `json:"upi_id"`
	KYCVerified bool   `json:"kyc_verified"`
}

type SettleRequest struct {
	SellerEmail    string
	AdminEmail     string
	TransactionID  string
	Notes          string
	IdempotencyKey string
	// Expected totals from the preview the admin approved; nil skips the check.
	ExpectedTotalAmount  *decimal.Decimal
	ExpectedTotalCredits *int64
}

type SettleResult struct {
	Payment  *models.PaymentHistory `json:"payment"`
	Replayed bool                   `json:"replayed"`
}

type ReconcileResult struct {
	PaymentID      string   `json:"payment_id"`
	Advanced       int      `json:"advanced"`
	AlreadyApplied int      `json:"already_applied"`
	Pending        []string `json:"pending"`
}

// PayoutService turns unpaid sales into payment history and moves design watermarks.
type PayoutService struct {
	designRepo  *repository.DesignRepository
	userRepo    *repository.UserRepository
	historyRepo *repository.PaymentHistoryRepository
	opts        Options
}

func NewPayoutService(
	designRepo *repository.DesignRepository,
	userRepo *repository.UserRepository,
	historyRepo *repository.PaymentHistoryRepository,
	opts Options,
) *PayoutService {
	return &PayoutService{
		designRepo:  designRepo,
		userRepo:    userRepo,
		historyRepo: historyRepo,
		opts:        opts.withDefaults(),
	}
}

// ComputeDue is read-only; it is used for the admin preview and as the settlement snapshot.
func (s *PayoutService) ComputeDue(ctx context.Context, sellerEmail string) (*Due, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	return s.computeDue(ctx, sellerEmail)
}

func (s *PayoutService) computeDue(ctx context.Context, sellerEmail string) (*Due, error) {
	designs, err := s.designRepo.ListVerifiedBySeller(ctx, sellerEmail)
	if err != nil {
		return nil, storeErr("list designs", err)
	}
	return buildDue(sellerEmail, designs), nil
}

func buildDue(sellerEmail string, designs []models.Design) *Due {
	due := &Due{SellerEmail: sellerEmail, TotalCash: decimal.Zero, Gross: decimal.Zero, Designs: []DueLine{}}
	for i := range designs {
		d := &designs[i]
		unpaid := UnpaidUnits(d)
		if unpaid == 0 {
			continue
		}
		gross := d.Price.Mul(decimal.NewFromInt(unpaid))
		cash, credits := splitRevenueFor(d, gross)
		due.TotalCash = due.TotalCash.Add(cash)
		due.TotalCredits += credits
		due.Orders += unpaid
		due.Gross = due.Gross.Add(gross)
		due.Designs = append(due.Designs, DueLine{
			DesignID:      d.DesignID,
			Title:         d.Title,
			Category:      categoryOf(d.Category),
			Price:         d.Price,
			SalesCount:    unpaid,
			ImageURL:      d.ThumbnailURL,
			PaymentMethod: d.PaymentMethod,
			Cash:          cash,
			Credits:       credits,
			FromSold:      d.LastPayoutSold,
			TargetSold:    d.TotalSold,
		})
	}
	return due
}

// ListSellersDue returns every seller that currently has unpaid sales.
func (s *PayoutService) ListSellersDue(ctx context.Context) ([]SellerDue, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	emails, err := s.designRepo.SellersWithUnpaidSales(ctx)
	if err != nil {
		return nil, storeErr("list sellers", err)
	}
	users, err := s.userRepo.ListByEmails(ctx, emails)
	if err != nil {
		return nil, storeErr("load sellers", err)
	}
	out := make([]SellerDue, 0, len(emails))
	for _, email := range emails {
		due, err := s.computeDue(ctx, email)
		if err != nil {
			return nil, err
		}
		if len(due.Designs) == 0 {
			continue
		}
		u := users[email]
		out = append(out, SellerDue{
			Email:       email,
			Username:    u.Username,
			IsDesigner:  u.IsDesigner,
			DesignsSold: due.Orders,
			PaymentDue:  due.TotalCash,
			CreditsDue:  due.TotalCredits,
		})
	}
	return out, nil
}

// SellerDesigns lists a seller's verified designs that have sold at least once.
func (s *PayoutService) SellerDesigns(ctx context.Context, sellerEmail string) ([]SellerDesign, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	designs, err := s.designRepo.ListVerifiedBySeller(ctx, sellerEmail)
	if err != nil {
		return nil, storeErr("list designs", err)
	}
	out := []SellerDesign{}
	for i := range designs {
		d := &designs[i]
		if d.TotalSold <= 0 {
			continue
		}
		unpaid := UnpaidUnits(d)
		cash, credits := splitRevenueFor(d, d.Price.Mul(decimal.NewFromInt(unpaid)))
		out = append(out, SellerDesign{Design: *d, UnpaidSales: unpaid, CashDue: cash, CreditsDue: credits})
	}
	return out, nil
}

func (s *PayoutService) PayoutDetails(ctx context.Context, sellerEmail string) (*PayoutDetails, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	u, err := s.userRepo.GetByEmail(ctx, sellerEmail)
	if err != nil {
		return nil, storeErr("get seller", err)
	}
	return &PayoutDetails{Email: u.Email, Username: u.Username, UPIID: u.UPIID, KYCVerified: u.IsSellerVerified()}, nil
}

// Settle records a payout for everything due to the seller right now.
//
// The history row and every watermark move commit together. Each watermark is set to the
// total_sold captured in the snapshot, so sales that land afterwards stay unpaid for the
// next payout. A watermark that moved since the snapshot aborts the whole settlement.
func (s *PayoutService) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	if err := s.requireAdmin(ctx, req.AdminEmail); err != nil {
		metrics.Ledger().ObserveSettlement("unauthorized")
		return nil, err
	}

	if req.IdempotencyKey != "" {
		prior, err := s.historyRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		switch {
		case err == nil:
			return s.replay(ctx, req, prior)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, storeErr("lookup idempotency key", err)
		}
	}

	due, err := s.computeDue(ctx, req.SellerEmail)
	if err != nil {
		return nil, err
	}
	if len(due.Designs) == 0 {
		metrics.Ledger().ObserveSettlement("nothing_due")
		return nil, ErrNothingDue
	}
	if req.ExpectedTotalAmount != nil && !req.ExpectedTotalAmount.Equal(due.TotalCash) {
		metrics.Ledger().ObserveSettlement("stale")
		return nil, ErrStaleSnapshot
	}
	if req.ExpectedTotalCredits != nil && *req.ExpectedTotalCredits != due.TotalCredits {
		metrics.Ledger().ObserveSettlement("stale")
		return nil, ErrStaleSnapshot
	}

	now := s.opts.now()
	h := &models.PaymentHistory{
		PaymentID:     newPaymentID(now, req.SellerEmail),
		SellerEmail:   req.SellerEmail,
		TotalAmount:   due.TotalCash.Round(2),
		TotalCredits:  due.TotalCredits,
		PaymentDate:   now,
		AdminEmail:    req.AdminEmail,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		h.IdempotencyKey = &key
	}
	for _, line := range due.Designs {
		h.PaidDesigns = append(h.PaidDesigns, models.PaidDesign{
			DesignID:      line.DesignID,
			Title:         line.Title,
			Category:      line.Category,
			Price:         line.Price,
			SalesCount:    line.SalesCount,
			ImageURL:      line.ImageURL,
			PaymentMethod: line.PaymentMethod,
			FromSold:      line.FromSold,
			TargetSold:    line.TargetSold,
		})
	}

	if err := s.historyRepo.RecordSettlement(ctx, h); err != nil {
		if errors.Is(err, repository.ErrWatermarkMoved) {
			metrics.Ledger().ObserveSettlement("conflict")
			return nil, ErrConflict
		}
		// A concurrent request with the same key may have won the insert.
		if req.IdempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			if prior, lerr := s.historyRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey); lerr == nil {
				return s.replay(ctx, req, prior)
			}
		}
		metrics.Ledger().ObserveSettlement("error")
		return nil, storeErr("record settlement", err)
	}

	metrics.Ledger().ObserveSettlement("settled")
	metrics.Ledger().AddSettled(h.TotalAmount.InexactFloat64(), h.TotalCredits)
	log.WithFields(log.Fields{
		"payment_id": h.PaymentID,
		"seller":     h.SellerEmail,
		"admin":      h.AdminEmail,
		"amount":     h.TotalAmount.StringFixed(2),
		"credits":    h.TotalCredits,
		"designs":    len(h.PaidDesigns),
	}).Info("[payout] settlement recorded")
	s.opts.notify(h.SellerEmail, domain.EventPayoutSettled, settledEvent(h))
	return &SettleResult{Payment: h}, nil
}

// replay answers a repeated idempotency key with the payment it first produced.
// A key recorded for a different seller is refused.
func (s *PayoutService) replay(ctx context.Context, req SettleRequest, prior *models.PaymentHistory) (*SettleResult, error) {
	if prior.SellerEmail != req.SellerEmail {
		metrics.Ledger().ObserveSettlement("key_reused")
		log.WithFields(log.Fields{
			"key":    req.IdempotencyKey,
			"seller": req.SellerEmail,
			"owner":  prior.SellerEmail,
		}).Warn("[payout] idempotency key reused across sellers")
		return nil, ErrKeyReused
	}
	metrics.Ledger().ObserveSettlement("replayed")
	res := &SettleResult{Payment: prior, Replayed: true}
	if _, err := s.reconcile(ctx, prior); err != nil {
		return res, err
	}
	return res, nil
}

// Reconcile re-runs the watermark sweep of a recorded payment. It never writes history.
func (s *PayoutService) Reconcile(ctx context.Context, paymentID string) (*ReconcileResult, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	h, err := s.historyRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, storeErr("get payment", err)
	}
	return s.reconcile(ctx, h)
}

func (s *PayoutService) reconcile(ctx context.Context, h *models.PaymentHistory) (*ReconcileResult, error) {
	res := &ReconcileResult{PaymentID: h.PaymentID, Pending: []string{}}
	var cause error
	for _, pd := range h.PaidDesigns {
		advanced, err := s.designRepo.AdvanceWatermark(ctx, pd.DesignID, pd.TargetSold)
		if err != nil {
			res.Pending = append(res.Pending, pd.DesignID)
			cause = err
			continue
		}
		if advanced {
			res.Advanced++
			continue
		}
		d, err := s.designRepo.GetByID(ctx, pd.DesignID)
		if err != nil {
			res.Pending = append(res.Pending, pd.DesignID)
			cause = err
			continue
		}
		if d.LastPayoutSold >= pd.TargetSold {
			res.AlreadyApplied++
			continue
		}
		res.Pending = append(res.Pending, pd.DesignID)
		cause = fmt.Errorf("design %s total_sold %d below target %d", d.DesignID, d.TotalSold, pd.TargetSold)
	}
	if len(res.Pending) > 0 {
		metrics.Ledger().AddReconcilePending(len(res.Pending))
		log.WithFields(log.Fields{
			"payment_id": h.PaymentID,
			"pending":    res.Pending,
		}).Warnf("[payout] reconcile incomplete: %v", cause)
		return res, &PartialSettlementError{PaymentID: h.PaymentID, Failed: res.Pending, Cause: cause}
	}
	if res.Advanced > 0 {
		log.WithFields(log.Fields{"payment_id": h.PaymentID, "advanced": res.Advanced}).Info("[payout] reconcile advanced watermarks")
	}
	return res, nil
}

func (s *PayoutService) PaymentHistory(ctx context.Context, sellerEmail string) ([]models.PaymentHistory, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	list, err := s.historyRepo.ListBySeller(ctx, sellerEmail)
	if err != nil {
		return nil, storeErr("list payment history", err)
	}
	return list, nil
}

// requireAdmin re-reads the caller; a missing row or a non-admin fails closed.
func (s *PayoutService) requireAdmin(ctx context.Context, email string) error {
	if email == "" {
		return ErrNotAuthorized
	}
	u, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotAuthorized
	}
	if err != nil {
		return storeErr("get admin", err)
	}
	if !u.IsAdmin {
		return ErrNotAuthorized
	}
	return nil
}

// newPaymentID is PAY_<yyyymmddhhmmss>_<seller local part>_<suffix>.
func newPaymentID(at time.Time, sellerEmail string) string {
	local := sellerEmail
	if i := strings.IndexByte(sellerEmail, '@'); i >= 0 {
		local = sellerEmail[:i]
	}
	return fmt.Sprintf("PAY_%s_%s_%s", at.Format("20060102150405"), local, uuid.NewString()[:8])
}

func settledEvent(h *models.PaymentHistory) map[string]interface{} {
	return map[string]interface{}{
		"payment_id":    h.PaymentID,
		"total_amount":  h.TotalAmount,
		"total_credits": h.TotalCredits,
		"payment_date":  h.PaymentDate,
	}
}

func categoryOf(c string) string {
	if strings.TrimSpace(c) == "" {
		return domain.DefaultCategory
	}
	return c
}
