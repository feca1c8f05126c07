package service

import (
	"context"
	"sort"

	"weavemart/internal/models"
	"weavemart/internal/repository"

	"github.com/shopspring/decimal"
)

type PeriodSummary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Credits           int64           `json:"credits"`
	Orders            int64           `json:"orders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type TopDesign struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	ThumbnailURL    string          `json:"thumbnail_url"`
	Category        string          `json:"category"`
	PaymentMethod   string          `json:"payment_method"`
	Price           decimal.Decimal `json:"price"`
	Sales           int64           `json:"sales"`
	UnpaidSales     int64           `json:"unpaid_sales"`
	CashRevenue     decimal.Decimal `json:"cash_revenue"`
	CreditsEarned   int64           `json:"credits_earned"`
	LifetimeRevenue decimal.Decimal `json:"lifetime_revenue"`
}

type Pagination struct {
	Total   int `json:"total"`
	Pages   int `json:"pages"`
	Current int `json:"current"`
}

type Dashboard struct {
	CurrentPeriod PeriodSummary `json:"currentPeriod"`
	TopDesigns    []TopDesign   `json:"topDesigns"`
	Pagination    Pagination    `json:"pagination"`
}

type CategoryValue struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type Analytics struct {
	MonthlyRevenue  [12]decimal.Decimal `json:"monthly_revenue"`
	MonthlyCredits  [12]int64           `json:"monthly_credits"`
	CategoryRevenue []CategoryValue     `json:"category_revenue"`
	AvailableYears  []int               `json:"available_years"`
}

// SalesService builds the seller-facing reports. It never writes.
type SalesService struct {
	designRepo  *repository.DesignRepository
	historyRepo *repository.PaymentHistoryRepository
	opts        Options
}

func NewSalesService(designRepo *repository.DesignRepository, historyRepo *repository.PaymentHistoryRepository, opts Options) *SalesService {
	return &SalesService{designRepo: designRepo, historyRepo: historyRepo, opts: opts.withDefaults()}
}

// Dashboard reports what is unpaid to date and the seller's designs ranked by lifetime sales.
func (s *SalesService) Dashboard(ctx context.Context, sellerEmail string, page, limit int) (*Dashboard, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	designs, err := s.designRepo.ListVerifiedBySeller(ctx, sellerEmail)
	if err != nil {
		return nil, storeErr("list designs", err)
	}
	due := buildDue(sellerEmail, designs)

	out := &Dashboard{
		CurrentPeriod: PeriodSummary{
			Revenue:           due.TotalCash,
			Credits:           due.TotalCredits,
			Orders:            due.Orders,
			AverageOrderValue: decimal.Zero,
		},
	}
	if due.Orders > 0 {
		out.CurrentPeriod.AverageOrderValue = due.Gross.Div(decimal.NewFromInt(due.Orders)).Round(2)
	}

	all := make([]TopDesign, 0, len(designs))
	for i := range designs {
		d := &designs[i]
		cash, credits := SplitRevenue(d.Price.Mul(decimal.NewFromInt(d.TotalSold)), d.PaymentMethod)
		all = append(all, TopDesign{
			ID:              d.DesignID,
			Title:           d.Title,
			ThumbnailURL:    d.ThumbnailURL,
			Category:        d.Category,
			PaymentMethod:   d.PaymentMethod,
			Price:           d.Price,
			Sales:           d.TotalSold,
			UnpaidSales:     UnpaidUnits(d),
			CashRevenue:     cash,
			CreditsEarned:   credits,
			LifetimeRevenue: cash.Add(decimal.NewFromInt(credits).Mul(creditValue)),
		})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Sales > all[j].Sales })

	start := (page - 1) * limit
	end := start + limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	out.TopDesigns = all[start:end]
	out.Pagination = Pagination{
		Total:   len(all),
		Pages:   (len(all) + limit - 1) / limit,
		Current: page,
	}
	return out, nil
}

// Analytics rolls a seller's payment history for one year up by month and by category.
func (s *SalesService) Analytics(ctx context.Context, sellerEmail string, year int) (*Analytics, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	history, err := s.historyRepo.ListBySeller(ctx, sellerEmail)
	if err != nil {
		return nil, storeErr("list payment history", err)
	}
	return rollup(history, year, s.opts), nil
}

func rollup(history []models.PaymentHistory, year int, opts Options) *Analytics {
	out := &Analytics{CategoryRevenue: []CategoryValue{}}
	for i := range out.MonthlyRevenue {
		out.MonthlyRevenue[i] = decimal.Zero
	}
	byCategory := map[string]decimal.Decimal{}
	years := map[int]struct{}{}

	for _, h := range history {
		at := h.PaymentDate.In(opts.Location)
		years[at.Year()] = struct{}{}
		if at.Year() != year {
			continue
		}
		m := int(at.Month()) - 1
		out.MonthlyRevenue[m] = out.MonthlyRevenue[m].Add(h.TotalAmount)
		out.MonthlyCredits[m] += h.TotalCredits
		for _, pd := range h.PaidDesigns {
			cat := categoryOf(pd.Category)
			byCategory[cat] = byCategory[cat].Add(pd.Revenue())
		}
	}

	for name, v := range byCategory {
		out.CategoryRevenue = append(out.CategoryRevenue, CategoryValue{Name: name, Value: v})
	}
	sort.Slice(out.CategoryRevenue, func(i, j int) bool {
		a, b := out.CategoryRevenue[i], out.CategoryRevenue[j]
		if c := a.Value.Cmp(b.Value); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})

	for y := range years {
		out.AvailableYears = append(out.AvailableYears, y)
	}
	if len(out.AvailableYears) == 0 {
		out.AvailableYears = []int{opts.now().Year()}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out.AvailableYears)))
	return out
}
