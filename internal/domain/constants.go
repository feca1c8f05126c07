package domain

const (
	VerificationPending  = "Pending"
	VerificationVerified = "Verified"
	VerificationRejected = "Rejected"
)

// User (seller KYC) verification states.
const (
	UserUnverified = "UNVERIFIED"
	UserPending    = "PENDING"
	UserVerified   = "VERIFIED"
	UserRejected   = "REJECTED"
)

// Payment methods a designer picks when submitting a design.
const (
	PaymentCreditsFull = "credits_100"
	PaymentHybridHalf  = "hybrid_50_50"
	PaymentCashFull    = "cash_100"
)

var PaymentMethods = []string{PaymentCreditsFull, PaymentHybridHalf, PaymentCashFull}

const (
	TransactionCompleted = "COMPLETED"
	TransactionPending   = "PENDING"
	TransactionFailed    = "FAILED"
)

const (
	// CreditValue is the currency value of one credit.
	CreditValue = 10
	// CommissionPercent is withheld from cash_100 payouts.
	CommissionPercent = 20
)

const (
	MilestoneDesigns       = 10
	MilestoneReferrerScore = 20
	MilestoneRefereeScore  = 10
	ReferralCodeLength     = 8
	ReferralCodeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

const DefaultCategory = "Uncategorized"

// Event types pushed over the live events socket.
const (
	EventPayoutSettled     = "payout.settled"
	EventReferralMilestone = "referral.milestone"
)
