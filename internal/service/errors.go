package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotAuthorized     = errors.New("not authorized")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrPersistence       = errors.New("persistence failure")
	ErrPartialSettlement = errors.New("partial settlement")

	ErrNothingDue    = fmt.Errorf("%w: nothing due for seller", ErrInvalidState)
	ErrStaleSnapshot = fmt.Errorf("%w: payment preview no longer matches amounts due", ErrInvalidState)
	ErrConflict      = fmt.Errorf("%w: concurrent settlement for seller", ErrInvalidState)
	ErrSelfReferral  = fmt.Errorf("%w: cannot use your own referral code", ErrInvalidState)
	ErrAlreadyLinked = fmt.Errorf("%w: referral code already applied", ErrInvalidState)
	ErrKeyReused     = fmt.Errorf("%w: idempotency key already used for another seller", ErrInvalidState)
	ErrSelfPurchase  = fmt.Errorf("%w: cannot buy your own design", ErrInvalidState)
)

// PartialSettlementError reports a payment history row whose design watermarks
// were not all advanced. Reconcile with PaymentID to finish the sweep.
type PartialSettlementError struct {
	PaymentID string
	Failed    []string
	Cause     error
}

func (e *PartialSettlementError) Error() string {
	msg := fmt.Sprintf("payment %s recorded but watermark not advanced for %s", e.PaymentID, strings.Join(e.Failed, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PartialSettlementError) Is(target error) bool { return target == ErrPartialSettlement }

func (e *PartialSettlementError) Unwrap() error { return e.Cause }

// storeErr maps a repository error onto the service taxonomy.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}
