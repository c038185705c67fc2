package rank

import (
	"time"
)

// BuilderRank is the per-participant progression record. Rows are created by the
// onboarding flow and never deleted; vote casting and weekly finalization mutate them.
type BuilderRank struct {
	Username        string    `json:"username" db:"username"`
	Tier            int       `json:"tier" db:"tier"`
	ShippingPoints  int       `json:"shipping_points" db:"shipping_points"`
	CommunityKarma  int       `json:"community_karma" db:"community_karma"`
	TrustScore      int       `json:"trust_score" db:"trust_score"`
	TierScore       int       `json:"tier_score" db:"tier_score"`
	PromotionPoints int       `json:"promotion_points" db:"promotion_points"`
	WeeklyWins      int       `json:"weekly_wins" db:"weekly_wins"`
	MonthlyWins     int       `json:"monthly_wins" db:"monthly_wins"`
	PotenCount      int       `json:"poten_count" db:"poten_count"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// FeedbackKind classifies a vote by the quality of the feedback attached to it.
type FeedbackKind string

const (
	FeedbackQuickVote      FeedbackKind = "quick_vote"
	FeedbackReview         FeedbackKind = "review"
	FeedbackVerifiedReview FeedbackKind = "verified_review"
)

// TierConfig holds the scoring tables. It is injected into the engines rather than
// read from package globals so tests can substitute alternate tables.
type TierConfig struct {
	// VoteWeights maps tier (0-7) to base vote weight. Tier 0 cannot vote.
	VoteWeights [8]int
	// Multipliers maps feedback quality to a weight multiplier.
	Multipliers map[FeedbackKind]int
	// PromotionPoints maps feedback quality to the points awarded to the voter.
	PromotionPoints map[FeedbackKind]int
	// PotenThreshold is the weighted score at which a launch breaks out.
	PotenThreshold int
	// MinReviewLength is the trimmed feedback length that counts as a review.
	MinReviewLength int
	// MinVerifiedDwell is the visit-to-return gap required for a verified review.
	MinVerifiedDwell time.Duration
}

// DefaultTierConfig returns the production scoring tables.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		VoteWeights: [8]int{0, 1, 1, 2, 3, 5, 5, 5},
		Multipliers: map[FeedbackKind]int{
			FeedbackQuickVote:      1,
			FeedbackReview:         3,
			FeedbackVerifiedReview: 5,
		},
		PromotionPoints: map[FeedbackKind]int{
			FeedbackQuickVote:      1,
			FeedbackReview:         5,
			FeedbackVerifiedReview: 10,
		},
		PotenThreshold:   10,
		MinReviewLength:  50,
		MinVerifiedDwell: 10 * time.Minute,
	}
}

// VoteWeight returns the base weight for a tier, 0 for out-of-range tiers.
func (c TierConfig) VoteWeight(tier int) int {
	if tier < 0 || tier >= len(c.VoteWeights) {
		return 0
	}
	return c.VoteWeights[tier]
}

// CanVote reports whether a tier is allowed to vote at all.
func (c TierConfig) CanVote(tier int) bool {
	return tier >= 1
}
