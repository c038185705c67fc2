package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVoteWeight(t *testing.T) {
	cfg := DefaultTierConfig()

	cases := []struct {
		tier int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 3},
		{5, 5},
		{6, 5},
		{7, 5},
		{-1, 0},
		{8, 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, cfg.VoteWeight(tc.tier), "tier %d", tc.tier)
	}
}

func TestCanVote(t *testing.T) {
	cfg := DefaultTierConfig()

	assert.False(t, cfg.CanVote(0))
	assert.False(t, cfg.CanVote(-3))
	assert.True(t, cfg.CanVote(1))
	assert.True(t, cfg.CanVote(7))
}

func TestDefaultTierConfig(t *testing.T) {
	cfg := DefaultTierConfig()

	assert.Equal(t, 10, cfg.PotenThreshold)
	assert.Equal(t, 50, cfg.MinReviewLength)
	assert.Equal(t, 10*time.Minute, cfg.MinVerifiedDwell)

	// The worked examples the scoring tables were tuned against.
	assert.Equal(t, 6, cfg.VoteWeight(3)*cfg.Multipliers[FeedbackReview])
	assert.Equal(t, 25, cfg.VoteWeight(5)*cfg.Multipliers[FeedbackVerifiedReview])
	assert.Equal(t, 1, cfg.VoteWeight(1)*cfg.Multipliers[FeedbackQuickVote])

	assert.Equal(t, 1, cfg.PromotionPoints[FeedbackQuickVote])
	assert.Equal(t, 5, cfg.PromotionPoints[FeedbackReview])
	assert.Equal(t, 10, cfg.PromotionPoints[FeedbackVerifiedReview])
}
