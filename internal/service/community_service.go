package service

import (
	"context"
	"sort"

	"weavemart/internal/repository"

	"github.com/shopspring/decimal"
)

const leaderboardSize = 50

type Badge struct {
	Name      string `json:"name"`
	Threshold int64  `json:"threshold"`
}

// badges are ordered by threshold, lowest first.
var badges = []Badge{
	{Name: "Novice", Threshold: 10},
	{Name: "Knight", Threshold: 100},
	{Name: "Sorcerer", Threshold: 1000},
	{Name: "Guardian", Threshold: 10000},
	{Name: "Overlord", Threshold: 100000},
}

// BadgeFor returns the highest badge earned with the given verified design count, or nil.
func BadgeFor(verified int64) *Badge {
	for i := len(badges) - 1; i >= 0; i-- {
		if verified >= badges[i].Threshold {
			b := badges[i]
			return &b
		}
	}
	return nil
}

// CommunityScore weighs uploads, sales and credits into one integer score.
func CommunityScore(verified, sold, credits int64) int64 {
	score := decimal.NewFromInt(verified).Mul(decimal.NewFromFloat(0.1)).
		Add(decimal.NewFromInt(sold).Mul(decimal.NewFromFloat(0.15))).
		Add(decimal.NewFromInt(credits).Mul(decimal.NewFromFloat(0.2)))
	return score.Floor().IntPart()
}

type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	Username        string `json:"username"`
	VerifiedDesigns int64  `json:"verified_designs"`
	TotalSold       int64  `json:"total_sold"`
	TotalCredits    int64  `json:"total_credits"`
	Score           int64  `json:"score"`
	Badge           *Badge `json:"badge"`
	IsCurrentUser   bool   `json:"is_current_user"`

	email string
}

type Leaderboard struct {
	Entries    []LeaderboardEntry `json:"leaderboard"`
	TotalUsers int                `json:"total_users"`
}

type CommunityService struct {
	designRepo *repository.DesignRepository
	userRepo   *repository.UserRepository
	opts       Options
}

func NewCommunityService(designRepo *repository.DesignRepository, userRepo *repository.UserRepository, opts Options) *CommunityService {
	return &CommunityService{designRepo: designRepo, userRepo: userRepo, opts: opts.withDefaults()}
}

// Leaderboard ranks every seller with a verified design. The viewer's entry is appended
// when it falls outside the top 50.
func (s *CommunityService) Leaderboard(ctx context.Context, viewerEmail string) (*Leaderboard, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	designs, err := s.designRepo.ListVerified(ctx)
	if err != nil {
		return nil, storeErr("list designs", err)
	}

	bySeller := map[string]*LeaderboardEntry{}
	var order []string
	for i := range designs {
		d := &designs[i]
		e, ok := bySeller[d.SellerEmail]
		if !ok {
			e = &LeaderboardEntry{email: d.SellerEmail}
			bySeller[d.SellerEmail] = e
			order = append(order, d.SellerEmail)
		}
		e.VerifiedDesigns++
		e.TotalSold += d.TotalSold
		_, credits := SplitRevenue(d.Price, d.PaymentMethod)
		e.TotalCredits += credits
	}

	users, err := s.userRepo.ListByEmails(ctx, order)
	if err != nil {
		return nil, storeErr("load users", err)
	}

	all := make([]LeaderboardEntry, 0, len(order))
	for _, email := range order {
		e := bySeller[email]
		e.Username = users[email].Username
		e.Score = CommunityScore(e.VerifiedDesigns, e.TotalSold, e.TotalCredits)
		e.Badge = BadgeFor(e.VerifiedDesigns)
		e.IsCurrentUser = email == viewerEmail
		all = append(all, *e)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	var viewer *LeaderboardEntry
	for i := range all {
		all[i].Rank = i + 1
		if all[i].IsCurrentUser {
			viewer = &all[i]
		}
	}

	top := all
	if len(top) > leaderboardSize {
		top = append([]LeaderboardEntry{}, all[:leaderboardSize]...)
		if viewer != nil && viewer.Rank > leaderboardSize {
			top = append(top, *viewer)
		}
	}
	return &Leaderboard{Entries: top, TotalUsers: len(all)}, nil
}
