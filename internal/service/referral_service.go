package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"weavemart/internal/domain"
	"weavemart/internal/metrics"
	"weavemart/internal/models"
	"weavemart/internal/repository"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const referralLeaderboardSize = 3

// ReferralSettings tunes code issuance and the milestone threshold.
type ReferralSettings struct {
	CodeLength       int
	CodeAttempts     int
	MilestoneDesigns int64
	// Generate overrides the random code source.
	Generate func() (string, error)
}

func (r ReferralSettings) withDefaults() ReferralSettings {
	if r.CodeLength <= 0 {
		r.CodeLength = domain.ReferralCodeLength
	}
	if r.CodeAttempts <= 0 {
		r.CodeAttempts = 10
	}
	if r.MilestoneDesigns <= 0 {
		r.MilestoneDesigns = domain.MilestoneDesigns
	}
	if r.Generate == nil {
		n := r.CodeLength
		r.Generate = func() (string, error) { return generateReferralCode(n) }
	}
	return r
}

// ReferralProgress is a user's position in the referral program.
type ReferralProgress struct {
	Status              string `json:"status"`
	Message             string `json:"message,omitempty"`
	Score               int64  `json:"score"`
	ReferralCount       int64  `json:"referral_count"`
	ApprovedDesigns     int64  `json:"approved_designs"`
	DesignsNeeded       int64  `json:"designs_needed"`
	ReferralCode        string `json:"referral_code"`
	MilestoneReached    bool   `json:"referral_milestone_reached"`
	MilestoneCredited   bool   `json:"milestone_credited"`
	ReferrerPointsAdded int64  `json:"referrer_points_added,omitempty"`
	UserPointsAdded     int64  `json:"user_points_added,omitempty"`
}

type ReferralLeader struct {
	Username    string `json:"username"`
	Points      int64  `json:"points"`
	HasReferral bool   `json:"has_referral"`
}

// ReferralService issues referral codes, links referees and credits milestones.
type ReferralService struct {
	userRepo   *repository.UserRepository
	designRepo *repository.DesignRepository
	settings   ReferralSettings
	opts       Options
}

func NewReferralService(
	userRepo *repository.UserRepository,
	designRepo *repository.DesignRepository,
	settings ReferralSettings,
	opts Options,
) *ReferralService {
	return &ReferralService{
		userRepo:   userRepo,
		designRepo: designRepo,
		settings:   settings.withDefaults(),
		opts:       opts.withDefaults(),
	}
}

// generateReferralCode returns n characters from A-Z0-9.
func generateReferralCode(n int) (string, error) {
	alphabet := domain.ReferralCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// IssueCode returns the user's referral code, assigning one if the user has none.
func (s *ReferralService) IssueCode(ctx context.Context, email string) (string, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", storeErr("get user", err)
	}
	if code := u.Code(); code != "" {
		return code, nil
	}
	return s.issueCode(ctx, email)
}

func (s *ReferralService) issueCode(ctx context.Context, email string) (string, error) {
	for i := 0; i < s.settings.CodeAttempts; i++ {
		code, err := s.settings.Generate()
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		if _, err := s.userRepo.GetByReferralCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", storeErr("check referral code", err)
		}
		ok, err := s.userRepo.SetReferralCodeIfEmpty(ctx, email, code)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race for the code on the unique index.
			log.Debugf("[referral] code %s taken while assigning to %s", code, email)
			continue
		}
		if err != nil {
			return "", storeErr("assign referral code", err)
		}
		if !ok {
			u, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return "", storeErr("get user", err)
			}
			if c := u.Code(); c != "" {
				return c, nil
			}
			continue
		}
		metrics.Ledger().IncCodeIssued()
		log.Infof("[referral] issued code for %s", email)
		return code, nil
	}
	return "", fmt.Errorf("%w: could not generate a unique referral code after %d attempts", ErrPersistence, s.settings.CodeAttempts)
}

// ResolveCode returns the email of the user owning code. Using your own code is rejected.
func (s *ReferralService) ResolveCode(ctx context.Context, email, code string) (string, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	return s.resolveCode(ctx, email, code)
}

func (s *ReferralService) resolveCode(ctx context.Context, email, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("referral code: %w", ErrNotFound)
	}
	ref, err := s.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		return "", storeErr("referral code", err)
	}
	if ref.Email == email {
		return "", ErrSelfReferral
	}
	return ref.Email, nil
}

// LinkReferee records code as the referrer of email. A user is linked at most once.
func (s *ReferralService) LinkReferee(ctx context.Context, email, code string) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	return s.linkReferee(ctx, email, code)
}

func (s *ReferralService) linkReferee(ctx context.Context, email, code string) error {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return storeErr("get user", err)
	}
	if u.HasReferee() {
		return ErrAlreadyLinked
	}
	referrer, err := s.resolveCode(ctx, email, code)
	if err != nil {
		return err
	}
	ok, err := s.userRepo.LinkReferee(ctx, email, strings.TrimSpace(code))
	if err != nil {
		return storeErr("link referee", err)
	}
	if !ok {
		return ErrAlreadyLinked
	}
	log.WithFields(log.Fields{"referee": email, "referrer": referrer}).Info("[referral] referee linked")
	return nil
}

// CompleteSignup runs once the user's phone is verified: it creates the user row if missing,
// applies an optional referral code and issues the user's own code.
func (s *ReferralService) CompleteSignup(ctx context.Context, email, username, code string) (*models.User, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidState)
	}
	if code != "" {
		if _, err := s.resolveCode(ctx, email, code); err != nil {
			return nil, err
		}
	}
	err := s.userRepo.EnsureExists(ctx, &models.User{
		Email:      email,
		Username:   username,
		IsVerified: domain.UserUnverified,
	})
	if err != nil {
		return nil, storeErr("create user", err)
	}
	if code != "" {
		if err := s.linkReferee(ctx, email, code); err != nil {
			return nil, err
		}
	}
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	if u.Code() == "" {
		c, err := s.issueCode(ctx, email)
		if err != nil {
			return nil, err
		}
		u.ReferralCode = &c
	}
	return u, nil
}

// CheckMilestone credits the referrer and the user once the user has enough verified designs.
// The credit is one-shot: the flag flip and both score updates commit together and only
// while the flag is still false.
func (s *ReferralService) CheckMilestone(ctx context.Context, email string) (*ReferralProgress, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	if u.Code() == "" {
		code, err := s.issueCode(ctx, email)
		if err != nil {
			return nil, err
		}
		u.ReferralCode = &code
	}
	approved, err := s.designRepo.CountVerifiedBySeller(ctx, email)
	if err != nil {
		return nil, storeErr("count designs", err)
	}

	switch {
	case u.ReferralMilestoneReached:
		p := s.progress(u, approved)
		p.Message = "Referral milestone already reached"
		return p, nil
	case !u.HasReferee():
		p := s.progress(u, approved)
		p.Message = "No referral code was applied to this account"
		return p, nil
	case approved < s.settings.MilestoneDesigns:
		p := s.progress(u, approved)
		p.Message = "Not enough approved designs yet"
		return p, nil
	}

	referrer, err := s.userRepo.GetByReferralCode(ctx, *u.RefereeCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warnf("[referral] referee %s points at unknown code %s", email, *u.RefereeCode)
		p := s.progress(u, approved)
		p.Message = "Referrer account no longer exists"
		return p, nil
	}
	if err != nil {
		return nil, storeErr("get referrer", err)
	}

	err = s.userRepo.CreditMilestone(ctx, email, referrer.Email, domain.MilestoneRefereeScore, domain.MilestoneReferrerScore)
	if errors.Is(err, repository.ErrMilestoneClaimed) {
		fresh, gerr := s.userRepo.GetByEmail(ctx, email)
		if gerr != nil {
			return nil, storeErr("get user", gerr)
		}
		return s.progress(fresh, approved), nil
	}
	if err != nil {
		return nil, storeErr("credit milestone", err)
	}

	metrics.Ledger().IncMilestone()
	log.WithFields(log.Fields{
		"referee":  email,
		"referrer": referrer.Email,
	}).Info("[referral] milestone credited")
	s.opts.notify(referrer.Email, domain.EventReferralMilestone, map[string]interface{}{
		"points": domain.MilestoneReferrerScore, "referee": u.Username,
	})
	s.opts.notify(email, domain.EventReferralMilestone, map[string]interface{}{
		"points": domain.MilestoneRefereeScore,
	})

	fresh, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	p := s.progress(fresh, approved)
	p.Message = "Referral milestone reached! Points awarded to both users."
	p.MilestoneCredited = true
	p.ReferrerPointsAdded = domain.MilestoneReferrerScore
	p.UserPointsAdded = domain.MilestoneRefereeScore
	return p, nil
}

// Progress is the read-only view of CheckMilestone.
func (s *ReferralService) Progress(ctx context.Context, email string) (*ReferralProgress, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	approved, err := s.designRepo.CountVerifiedBySeller(ctx, email)
	if err != nil {
		return nil, storeErr("count designs", err)
	}
	return s.progress(u, approved), nil
}

func (s *ReferralService) progress(u *models.User, approved int64) *ReferralProgress {
	needed := s.settings.MilestoneDesigns - approved
	if needed < 0 {
		needed = 0
	}
	return &ReferralProgress{
		Status:           "SUCCESS",
		Score:            u.ReferralScore,
		ReferralCount:    u.ReferralCount,
		ApprovedDesigns:  approved,
		DesignsNeeded:    needed,
		ReferralCode:     u.Code(),
		MilestoneReached: u.ReferralMilestoneReached,
	}
}

// Leaderboard returns the top non-admin users by referral score.
func (s *ReferralService) Leaderboard(ctx context.Context) ([]ReferralLeader, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	users, err := s.userRepo.TopByReferralScore(ctx, referralLeaderboardSize)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	out := make([]ReferralLeader, 0, len(users))
	for _, u := range users {
		name := u.Username
		if name == "" {
			name = "Anonymous"
		}
		out = append(out, ReferralLeader{Username: name, Points: u.ReferralScore, HasReferral: u.Code() != ""})
	}
	return out, nil
}
