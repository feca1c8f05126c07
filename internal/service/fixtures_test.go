package service

import (
	"context"
	"testing"
	"time"

	"weavemart/internal/domain"
	"weavemart/internal/models"
	"weavemart/internal/repository"
	"weavemart/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	users    *repository.UserRepository
	designs  *repository.DesignRepository
	history  *repository.PaymentHistoryRepository
	txs      *repository.TransactionRepository
	opts     Options
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	n := &recordingNotifier{}
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		users:    repository.NewUserRepository(db),
		designs:  repository.NewDesignRepository(db),
		history:  repository.NewPaymentHistoryRepository(db),
		txs:      repository.NewTransactionRepository(db),
		opts:     Options{Timeout: 5 * time.Second, Location: time.UTC, Now: func() time.Time { return fixedNow }, Notifier: n},
		notifier: n,
	}
}

func (f *fixture) payout() *PayoutService {
	return NewPayoutService(f.designs, f.users, f.history, f.opts)
}

func (f *fixture) user(email string, mutate ...func(*models.User)) *models.User {
	f.t.Helper()
	u := &models.User{Email: email, Username: email[:1] + "-user", IsVerified: domain.UserVerified}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) admin(email string) *models.User {
	return f.user(email, func(u *models.User) { u.IsAdmin = true })
}

func (f *fixture) design(seller, price, method string, totalSold, lastPaid int64, mutate ...func(*models.Design)) *models.Design {
	f.t.Helper()
	d := &models.Design{
		DesignID:           uuid.NewString(),
		SellerEmail:        seller,
		Title:              "Paisley " + price,
		Category:           "Silk",
		Price:              decimal.RequireFromString(price),
		PaymentMethod:      method,
		VerificationStatus: domain.VerificationVerified,
		TotalSold:          totalSold,
		LastPayoutSold:     lastPaid,
		BundleDiscount:     decimal.Zero,
	}
	for _, m := range mutate {
		m(d)
	}
	require.NoError(f.t, f.db.Create(d).Error)
	return d
}

func (f *fixture) reload(id string) *models.Design {
	f.t.Helper()
	d, err := f.designs.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return d
}

func (f *fixture) reloadUser(email string) *models.User {
	f.t.Helper()
	u, err := f.users.GetByEmail(f.ctx, email)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) historyCount() int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&models.PaymentHistory{}).Count(&n).Error)
	return n
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func pending(d *models.Design) { d.VerificationStatus = domain.VerificationPending }

type notification struct {
	email string
	event string
}

type recordingNotifier struct {
	sent []notification
}

func (r *recordingNotifier) NotifyUser(email, event string, data interface{}) {
	r.sent = append(r.sent, notification{email: email, event: event})
}
