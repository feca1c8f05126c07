package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"weavemart/internal/domain"
	"weavemart/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputeDueHybridScenario(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com")
	d := f.design("seller@example.com", "200", domain.PaymentHybridHalf, 5, 2)

	due, err := f.payout().ComputeDue(f.ctx, "seller@example.com")
	require.NoError(t, err)
	requireDecimal(t, "300", due.TotalCash)
	require.Equal(t, int64(30), due.TotalCredits)
	require.Equal(t, int64(3), due.Orders)
	require.Len(t, due.Designs, 1)

	line := due.Designs[0]
	require.Equal(t, d.DesignID, line.DesignID)
	require.Equal(t, int64(3), line.SalesCount)
	require.Equal(t, int64(2), line.FromSold)
	require.Equal(t, int64(5), line.TargetSold)
	require.Equal(t, "Silk", line.Category)
}

func TestComputeDueSkipsUnverifiedPaidAndCorruptDesigns(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com")
	f.design("seller@example.com", "100", domain.PaymentCashFull, 4, 0, pending)
	f.design("seller@example.com", "100", domain.PaymentCashFull, 4, 4)
	f.design("seller@example.com", "100", domain.PaymentCashFull, 2, 6)
	f.design("other@example.com", "100", domain.PaymentCashFull, 9, 0)

	due, err := f.payout().ComputeDue(f.ctx, "seller@example.com")
	require.NoError(t, err)
	require.Empty(t, due.Designs)
	require.True(t, due.TotalCash.IsZero())
	require.Zero(t, due.TotalCredits)
}

func TestComputeDueUnknownMethodPaysZero(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com")
	f.design("seller@example.com", "100", "barter", 3, 0)

	due, err := f.payout().ComputeDue(f.ctx, "seller@example.com")
	require.NoError(t, err)
	require.Len(t, due.Designs, 1)
	require.True(t, due.TotalCash.IsZero())
	require.Zero(t, due.TotalCredits)
}

func TestSettleRecordsHistoryAndAdvancesWatermark(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	hybrid := f.design("seller@example.com", "200", domain.PaymentHybridHalf, 5, 2)
	cash := f.design("seller@example.com", "50", domain.PaymentCashFull, 1, 0)
	svc := f.payout()

	res, err := svc.Settle(f.ctx, SettleRequest{
		SellerEmail:   "seller@example.com",
		AdminEmail:    "admin@example.com",
		TransactionID: "UPI-123",
		Notes:         "march payout",
	})
	require.NoError(t, err)
	require.False(t, res.Replayed)
	require.True(t, strings.HasPrefix(res.Payment.PaymentID, "PAY_20240315103000_seller_"), res.Payment.PaymentID)
	requireDecimal(t, "340", res.Payment.TotalAmount)
	require.Equal(t, int64(30), res.Payment.TotalCredits)
	require.Len(t, res.Payment.PaidDesigns, 2)

	require.Equal(t, int64(5), f.reload(hybrid.DesignID).LastPayoutSold)
	require.Equal(t, int64(1), f.reload(cash.DesignID).LastPayoutSold)

	stored, err := f.history.GetByID(f.ctx, res.Payment.PaymentID)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", stored.AdminEmail)
	require.Equal(t, "UPI-123", stored.TransactionID)
	require.Len(t, stored.PaidDesigns, 2)

	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, domain.EventPayoutSettled, f.notifier.sent[0].event)
	require.Equal(t, "seller@example.com", f.notifier.sent[0].email)
}

func TestSettleTwiceIsNothingDue(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	d := f.design("seller@example.com", "200", domain.PaymentHybridHalf, 5, 2)
	svc := f.payout()
	req := SettleRequest{SellerEmail: "seller@example.com", AdminEmail: "admin@example.com"}

	_, err := svc.Settle(f.ctx, req)
	require.NoError(t, err)

	_, err = svc.Settle(f.ctx, req)
	require.ErrorIs(t, err, ErrNothingDue)
	require.ErrorIs(t, err, ErrInvalidState)

	got := f.reload(d.DesignID)
	require.Equal(t, got.TotalSold, got.LastPayoutSold)
	require.Equal(t, int64(1), f.historyCount())

	due, err := svc.ComputeDue(f.ctx, "seller@example.com")
	require.NoError(t, err)
	require.True(t, due.TotalCash.IsZero())
}

func TestSalesAfterSettlementStayUnpaid(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	d := f.design("seller@example.com", "100", domain.PaymentCashFull, 3, 0)
	svc := f.payout()

	_, err := svc.Settle(f.ctx, SettleRequest{SellerEmail: "seller@example.com", AdminEmail: "admin@example.com"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Design{}).Where("design_id = ?", d.DesignID).
		Update("total_sold", 5).Error)

	due, err := svc.ComputeDue(f.ctx, "seller@example.com")
	require.NoError(t, err)
	require.Len(t, due.Designs, 1)
	require.Equal(t, int64(2), due.Designs[0].SalesCount)
	requireDecimal(t, "160", due.TotalCash)
}

func TestSettleRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com")
	f.user("mallory@example.com")
	d := f.design("seller@example.com", "100", domain.PaymentCashFull, 3, 0)
	svc := f.payout()

	for _, caller := range []string{"", "mallory@example.com", "ghost@example.com"} {
		_, err := svc.Settle(f.ctx, SettleRequest{SellerEmail: "seller@example.com", AdminEmail: caller})
		require.ErrorIs(t, err, ErrNotAuthorized, "caller %q", caller)
	}
	require.Zero(t, f.historyCount())
	require.Zero(t, f.reload(d.DesignID).LastPayoutSold)
}

func TestSettleIdempotencyKeyReplays(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	f.design("seller@example.com", "100", domain.PaymentCreditsFull, 2, 0)
	svc := f.payout()
	req := SettleRequest{SellerEmail: "seller@example.com", AdminEmail: "admin@example.com", IdempotencyKey: "key-1"}

	first, err := svc.Settle(f.ctx, req)
	require.NoError(t, err)
	second, err := svc.Settle(f.ctx, req)
	require.NoError(t, err)

	require.True(t, second.Replayed)
	require.Equal(t, first.Payment.PaymentID, second.Payment.PaymentID)
	require.Equal(t, int64(20), second.Payment.TotalCredits)
	require.Equal(t, int64(1), f.historyCount())
}

func TestSettleRefusesKeyFromAnotherSeller(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("a@example.com")
	f.user("b@example.com")
	f.design("a@example.com", "100", domain.PaymentCreditsFull, 2, 0)
	d := f.design("b@example.com", "100", domain.PaymentCreditsFull, 3, 0)
	svc := f.payout()

	_, err := svc.Settle(f.ctx, SettleRequest{SellerEmail: "a@example.com", AdminEmail: "admin@example.com", IdempotencyKey: "k"})
	require.NoError(t, err)

	res, err := svc.Settle(f.ctx, SettleRequest{SellerEmail: "b@example.com", AdminEmail: "admin@example.com", IdempotencyKey: "k"})
	require.ErrorIs(t, err, ErrKeyReused)
	require.ErrorIs(t, err, ErrInvalidState)
	require.Nil(t, res)
	require.Zero(t, f.reload(d.DesignID).LastPayoutSold)
	require.Equal(t, int64(1), f.historyCount())

	res, err = svc.Settle(f.ctx, SettleRequest{SellerEmail: "b@example.com", AdminEmail: "admin@example.com", IdempotencyKey: "k-b"})
	require.NoError(t, err)
	require.False(t, res.Replayed)
	require.Equal(t, int64(3), f.reload(d.DesignID).LastPayoutSold)
}

func TestSettleRejectsStalePreview(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	d := f.design("seller@example.com", "200", domain.PaymentHybridHalf, 5, 2)
	svc := f.payout()

	preview := decimal.NewFromInt(200)
	_, err := svc.Settle(f.ctx, SettleRequest{
		SellerEmail:         "seller@example.com",
		AdminEmail:          "admin@example.com",
		ExpectedTotalAmount: &preview,
	})
	require.ErrorIs(t, err, ErrStaleSnapshot)
	require.Zero(t, f.historyCount())
	require.Equal(t, int64(2), f.reload(d.DesignID).LastPayoutSold)

	current := decimal.NewFromInt(300)
	credits := int64(30)
	_, err = svc.Settle(f.ctx, SettleRequest{
		SellerEmail:          "seller@example.com",
		AdminEmail:           "admin@example.com",
		ExpectedTotalAmount:  &current,
		ExpectedTotalCredits: &credits,
	})
	require.NoError(t, err)
}

func TestReconcileFinishesWatermarkSweep(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	a := f.design("seller@example.com", "100", domain.PaymentCashFull, 4, 1)
	b := f.design("seller@example.com", "100", domain.PaymentCashFull, 2, 0)
	svc := f.payout()

	res, err := svc.Settle(f.ctx, SettleRequest{SellerEmail: "seller@example.com", AdminEmail: "admin@example.com"})
	require.NoError(t, err)

	// Simulate a sweep that never reached design a.
	require.NoError(t, f.db.Model(&models.Design{}).Where("design_id = ?", a.DesignID).
		Update("last_payout_sold", 1).Error)

	rec, err := svc.Reconcile(f.ctx, res.Payment.PaymentID)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Advanced)
	require.Equal(t, 1, rec.AlreadyApplied)
	require.Empty(t, rec.Pending)
	require.Equal(t, int64(4), f.reload(a.DesignID).LastPayoutSold)
	require.Equal(t, int64(2), f.reload(b.DesignID).LastPayoutSold)

	rec, err = svc.Reconcile(f.ctx, res.Payment.PaymentID)
	require.NoError(t, err)
	require.Zero(t, rec.Advanced)
	require.Equal(t, 2, rec.AlreadyApplied)
	require.Equal(t, int64(1), f.historyCount())
}

func TestReconcileReportsPartialSettlement(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	d := f.design("seller@example.com", "100", domain.PaymentCashFull, 4, 0)
	svc := f.payout()

	res, err := svc.Settle(f.ctx, SettleRequest{SellerEmail: "seller@example.com", AdminEmail: "admin@example.com"})
	require.NoError(t, err)

	// Counters rewound below the recorded target: the watermark cannot legally reach it.
	require.NoError(t, f.db.Model(&models.Design{}).Where("design_id = ?", d.DesignID).
		Updates(map[string]interface{}{"total_sold": 2, "last_payout_sold": 0}).Error)

	rec, err := svc.Reconcile(f.ctx, res.Payment.PaymentID)
	require.ErrorIs(t, err, ErrPartialSettlement)
	var partial *PartialSettlementError
	require.True(t, errors.As(err, &partial))
	require.Equal(t, res.Payment.PaymentID, partial.PaymentID)
	require.Equal(t, []string{d.DesignID}, partial.Failed)
	require.Equal(t, []string{d.DesignID}, rec.Pending)
	require.Zero(t, f.reload(d.DesignID).LastPayoutSold)
}

func TestReconcileUnknownPayment(t *testing.T) {
	f := newFixture(t)
	_, err := f.payout().Reconcile(f.ctx, "PAY_missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListSellersDueAndSellerDesigns(t *testing.T) {
	f := newFixture(t)
	f.user("a@example.com", func(u *models.User) { u.Username = "alice"; u.IsDesigner = true })
	f.user("b@example.com")
	f.design("a@example.com", "100", domain.PaymentCashFull, 3, 1)
	f.design("a@example.com", "40", domain.PaymentCreditsFull, 1, 0)
	f.design("a@example.com", "40", domain.PaymentCreditsFull, 0, 0)
	f.design("b@example.com", "40", domain.PaymentCreditsFull, 2, 2)
	svc := f.payout()

	sellers, err := svc.ListSellersDue(f.ctx)
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	require.Equal(t, "a@example.com", sellers[0].Email)
	require.Equal(t, "alice", sellers[0].Username)
	require.True(t, sellers[0].IsDesigner)
	require.Equal(t, int64(3), sellers[0].DesignsSold)
	requireDecimal(t, "160", sellers[0].PaymentDue)
	require.Equal(t, int64(4), sellers[0].CreditsDue)

	designs, err := svc.SellerDesigns(f.ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, designs, 2)
}

func TestPaymentHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.admin("admin@example.com")
	f.user("seller@example.com")
	d := f.design("seller@example.com", "100", domain.PaymentCashFull, 1, 0)
	svc := f.payout()

	first, err := svc.Settle(f.ctx, SettleRequest{SellerEmail: "seller@example.com", AdminEmail: "admin@example.com"})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Design{}).Where("design_id = ?", d.DesignID).Update("total_sold", 2).Error)
	f.opts.Now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	second, err := f.payout().Settle(f.ctx, SettleRequest{SellerEmail: "seller@example.com", AdminEmail: "admin@example.com"})
	require.NoError(t, err)

	list, err := svc.PaymentHistory(f.ctx, "seller@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.Payment.PaymentID, list[0].PaymentID)
	require.Equal(t, first.Payment.PaymentID, list[1].PaymentID)
}

func TestPayoutDetails(t *testing.T) {
	f := newFixture(t)
	f.user("seller@example.com", func(u *models.User) { u.UPIID = "seller@upi" })
	f.user("new@example.com", func(u *models.User) { u.IsVerified = domain.UserPending })
	svc := f.payout()

	d, err := svc.PayoutDetails(f.ctx, "seller@example.com")
	require.NoError(t, err)
	require.Equal(t, "seller@upi", d.UPIID)
	require.True(t, d.KYCVerified)

	d, err = svc.PayoutDetails(f.ctx, "new@example.com")
	require.NoError(t, err)
	require.False(t, d.KYCVerified)

	_, err = svc.PayoutDetails(f.ctx, "ghost@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}
