package service

import (
	"context"
	"fmt"
	"strings"

	"weavemart/internal/domain"
	"weavemart/internal/models"
	"weavemart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type RecordPurchaseInput struct {
	DesignIDs   []string `json:"design_ids" binding:"required"`
	Status      string   `json:"status"`
	ProviderRef string   `json:"provider_ref"`
}

type TransactionService struct {
	txRepo     *repository.TransactionRepository
	designRepo *repository.DesignRepository
	opts       Options
}

func NewTransactionService(txRepo *repository.TransactionRepository, designRepo *repository.DesignRepository, opts Options) *TransactionService {
	return &TransactionService{txRepo: txRepo, designRepo: designRepo, opts: opts.withDefaults()}
}

// Record stores a purchase. A COMPLETED purchase needs the payment provider reference and
// bumps total_sold of each design in the same store transaction. Sellers cannot buy their own designs.
func (s *TransactionService) Record(ctx context.Context, buyerEmail string, in RecordPurchaseInput) (*models.Transaction, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	status := in.Status
	if status == "" {
		status = domain.TransactionCompleted
	}
	switch status {
	case domain.TransactionCompleted, domain.TransactionPending, domain.TransactionFailed:
	default:
		return nil, fmt.Errorf("%w: unknown transaction status %q", ErrInvalidState, status)
	}
	if len(in.DesignIDs) == 0 {
		return nil, fmt.Errorf("%w: no designs in purchase", ErrInvalidState)
	}
	in.ProviderRef = strings.TrimSpace(in.ProviderRef)
	if status == domain.TransactionCompleted && in.ProviderRef == "" {
		return nil, fmt.Errorf("%w: provider_ref required for a completed purchase", ErrInvalidState)
	}

	t := &models.Transaction{
		TransactionID: uuid.NewString(),
		BuyerEmail:    buyerEmail,
		Status:        status,
		ProviderRef:   in.ProviderRef,
		TotalAmount:   decimal.Zero,
	}
	seen := map[string]bool{}
	for _, id := range in.DesignIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		d, err := s.designRepo.GetByID(ctx, id)
		if err != nil {
			return nil, storeErr("get design", err)
		}
		if d.VerificationStatus != domain.VerificationVerified {
			return nil, fmt.Errorf("%w: design %s is not available", ErrInvalidState, id)
		}
		if d.SellerEmail == buyerEmail {
			return nil, ErrSelfPurchase
		}
		t.Items = append(t.Items, models.TransactionItem{DesignID: d.DesignID, Title: d.Title, Price: d.Price})
		t.TotalAmount = t.TotalAmount.Add(d.Price)
	}

	if err := s.txRepo.Create(ctx, t); err != nil {
		return nil, storeErr("record transaction", err)
	}
	log.WithFields(log.Fields{
		"transaction_id": t.TransactionID,
		"buyer":          buyerEmail,
		"status":         status,
		"items":          len(t.Items),
	}).Info("[transaction] recorded")
	return t, nil
}
