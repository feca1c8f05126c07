package service

import (
	"testing"

	"weavemart/internal/domain"
	"weavemart/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSplitRevenueCreditsFull(t *testing.T) {
	cases := map[string]int64{"0": 0, "9": 0, "10": 1, "99.99": 9, "250": 25}
	for gross, credits := range cases {
		cash, got := SplitRevenue(decimal.RequireFromString(gross), domain.PaymentCreditsFull)
		require.True(t, cash.IsZero(), "gross %s", gross)
		require.Equal(t, credits, got, "gross %s", gross)
	}
}

func TestSplitRevenueHybridHalf(t *testing.T) {
	cash, credits := SplitRevenue(decimal.NewFromInt(100), domain.PaymentHybridHalf)
	requireDecimal(t, "50", cash)
	require.Equal(t, int64(5), credits)

	cash, credits = SplitRevenue(decimal.NewFromInt(15), domain.PaymentHybridHalf)
	requireDecimal(t, "7.5", cash)
	require.Equal(t, int64(0), credits)
}

func TestSplitRevenueCashFull(t *testing.T) {
	cash, credits := SplitRevenue(decimal.NewFromInt(100), domain.PaymentCashFull)
	requireDecimal(t, "80", cash)
	require.Equal(t, int64(0), credits)
}

func TestSplitRevenueUnknownMethodPaysNothing(t *testing.T) {
	for _, method := range []string{"", "unknown", "CASH_100"} {
		cash, credits := SplitRevenue(decimal.NewFromInt(100), method)
		require.True(t, cash.IsZero())
		require.Zero(t, credits)
		require.False(t, KnownPaymentMethod(method))
	}
	for _, method := range domain.PaymentMethods {
		require.True(t, KnownPaymentMethod(method))
	}
}

func TestUnpaidUnitsClampsNegative(t *testing.T) {
	require.Equal(t, int64(3), UnpaidUnits(&models.Design{TotalSold: 5, LastPayoutSold: 2}))
	require.Equal(t, int64(0), UnpaidUnits(&models.Design{TotalSold: 4, LastPayoutSold: 4}))
	require.Equal(t, int64(0), UnpaidUnits(&models.Design{DesignID: "broken", TotalSold: 2, LastPayoutSold: 5}))
}
