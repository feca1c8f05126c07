package service

import (
	"weavemart/internal/domain"
	"weavemart/internal/metrics"
	"weavemart/internal/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	creditValue = decimal.NewFromInt(domain.CreditValue)
	half        = decimal.NewFromFloat(0.5)
	cashShare   = decimal.NewFromInt(100 - domain.CommissionPercent).Div(decimal.NewFromInt(100))
)

// KnownPaymentMethod reports whether method is one of the payout policies.
func KnownPaymentMethod(method string) bool {
	for _, m := range domain.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// SplitRevenue divides a gross amount into the cash and credits owed to the seller.
// Unknown methods pay nothing.
func SplitRevenue(gross decimal.Decimal, method string) (decimal.Decimal, int64) {
	switch method {
	case domain.PaymentCreditsFull:
		return decimal.Zero, toCredits(gross)
	case domain.PaymentHybridHalf:
		cash := gross.Mul(half)
		return cash, toCredits(cash)
	case domain.PaymentCashFull:
		return gross.Mul(cashShare), 0
	default:
		return decimal.Zero, 0
	}
}

func toCredits(amount decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	return amount.Div(creditValue).Floor().IntPart()
}

// splitRevenueFor is SplitRevenue plus the unknown-method warning.
func splitRevenueFor(d *models.Design, gross decimal.Decimal) (decimal.Decimal, int64) {
	if !KnownPaymentMethod(d.PaymentMethod) {
		log.WithFields(log.Fields{
			"design_id": d.DesignID,
			"seller":    d.SellerEmail,
			"method":    d.PaymentMethod,
		}).Warn("[payout] unknown payment method, paying zero")
		metrics.Ledger().IncUnknownMethod(d.PaymentMethod)
	}
	return SplitRevenue(gross, d.PaymentMethod)
}

// UnpaidUnits is total_sold minus last_payout_sold, never below zero.
func UnpaidUnits(d *models.Design) int64 {
	n := d.TotalSold - d.LastPayoutSold
	if n < 0 {
		log.WithFields(log.Fields{
			"design_id":        d.DesignID,
			"total_sold":       d.TotalSold,
			"last_payout_sold": d.LastPayoutSold,
		}).Warn("[payout] watermark above total_sold, treating unpaid as 0")
		metrics.Ledger().IncUnpaidAnomaly()
		return 0
	}
	return n
}
