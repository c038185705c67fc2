package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/launch"
	"launchPadAPI/internal/logger"
	"launchPadAPI/internal/metrics"
	"launchPadAPI/internal/rank"
)

// StationProvisioner is the slice of StationService the voting engine needs.
type StationProvisioner interface {
	CreateStationFromPoten(ctx context.Context, launchID uuid.UUID) error
}

type VotingService struct {
	db             DB
	cfg            rank.TierConfig
	stations       StationProvisioner
	allowSelfVotes bool
	log            *logger.Logger
}

func NewVotingService(db DB, cfg rank.TierConfig, stations StationProvisioner, allowSelfVotes bool, log *logger.Logger) *VotingService {
	return &VotingService{
		db:             db,
		cfg:            cfg,
		stations:       stations,
		allowSelfVotes: allowSelfVotes,
		log:            log,
	}
}

// CastVote inserts a weighted vote and updates the launch aggregates in one
// transaction. If the vote pushes the weighted score over the poten threshold
// the launch is latched poten inside the same transaction; station provisioning
// runs afterwards against the freshly committed row, so two concurrent crossing
// votes cannot both observe a stale "not yet poten" launch and double-provision.
func (s *VotingService) CastVote(ctx context.Context, launchID uuid.UUID, voterUsername string, req launch.CastVoteRequest) (*launch.CastVoteResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var voterTier int
	err = tx.QueryRow(ctx, `SELECT tier FROM builder_ranks WHERE username = $1`, voterUsername).Scan(&voterTier)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get voter rank: %w", err)
	}
	if !s.cfg.CanVote(voterTier) {
		return nil, apperr.Validation("tier %d cannot vote", voterTier)
	}

	var owner string
	var wasPoten bool
	err = tx.QueryRow(ctx, `SELECT username, is_poten FROM launches WHERE id = $1`, launchID).Scan(&owner, &wasPoten)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("launch not found")
		}
		return nil, fmt.Errorf("failed to get launch: %w", err)
	}

	if owner == voterUsername && !s.allowSelfVotes {
		return nil, apperr.Validation("cannot vote on your own launch")
	}

	var alreadyVoted bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM launch_votes WHERE launch_id = $1 AND voter_username = $2)`,
		launchID, voterUsername,
	).Scan(&alreadyVoted)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}
	if alreadyVoted {
		return nil, apperr.Validation("already voted on this launch")
	}

	kind, isVerified := s.classifyFeedback(req.FeedbackText, req.VisitedAt, req.ReturnedAt)
	weight := s.cfg.VoteWeight(voterTier) * s.cfg.Multipliers[kind]

	var feedbackText *string
	if trimmed := strings.TrimSpace(req.FeedbackText); trimmed != "" {
		feedbackText = &trimmed
	}
	productType := parseProductType(req.ProductTypeVote)

	_, err = tx.Exec(ctx, `
		INSERT INTO launch_votes (id, launch_id, voter_username, weight, multiplier, is_verified, feedback_text, product_type_vote, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), launchID, voterUsername, weight, string(kind), isVerified, feedbackText, productTypeArg(productType), time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert vote: %w", err)
	}

	verifiedInc := 0
	if isVerified {
		verifiedInc = 1
	}

	var newScore int
	var isPotenNow bool
	err = tx.QueryRow(ctx, `
		UPDATE launches
		SET vote_count = vote_count + 1,
		    weighted_score = weighted_score + $2,
		    vitamin_votes = vitamin_votes + $3,
		    painkiller_votes = painkiller_votes + $4,
		    candy_votes = candy_votes + $5,
		    verified_feedback_count = verified_feedback_count + $6,
		    is_poten = is_poten OR (weighted_score + $2 >= $7),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING weighted_score, is_poten`,
		launchID, weight,
		categoryInc(productType, launch.ProductVitamin),
		categoryInc(productType, launch.ProductPainkiller),
		categoryInc(productType, launch.ProductCandy),
		verifiedInc, s.cfg.PotenThreshold,
	).Scan(&newScore, &isPotenNow)
	if err != nil {
		return nil, fmt.Errorf("failed to update launch counters: %w", err)
	}

	crossed := !wasPoten && isPotenNow
	if crossed {
		_, err = tx.Exec(ctx, `
			INSERT INTO launch_poten_events (id, launch_id, weighted_score, crossed_at)
			VALUES ($1, $2, $3, $4)`,
			uuid.New(), launchID, newScore, time.Now(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to record poten event: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE builder_ranks SET poten_count = poten_count + 1, updated_at = NOW() WHERE username = $1`,
			owner,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update owner poten count: %w", err)
		}
	}

	promotionPoints := s.cfg.PromotionPoints[kind]
	_, err = tx.Exec(ctx, `
		UPDATE builder_ranks
		SET promotion_points = promotion_points + $2,
		    community_karma = community_karma + $2,
		    tier_score = shipping_points + community_karma + $2 + trust_score,
		    updated_at = NOW()
		WHERE username = $1`,
		voterUsername, promotionPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to award promotion points: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.VotesCast.WithLabelValues(string(kind)).Inc()

	if crossed {
		// Re-read the committed launch before provisioning. The latch is already
		// durable at this point; provisioning itself is idempotent by launch_id.
		var confirmed bool
		err = s.db.QueryRow(ctx, `SELECT is_poten FROM launches WHERE id = $1`, launchID).Scan(&confirmed)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read launch after poten crossing: %w", err)
		}
		if confirmed {
			if err := s.stations.CreateStationFromPoten(ctx, launchID); err != nil {
				return nil, fmt.Errorf("failed to provision station for poten launch: %w", err)
			}
		}
		s.log.WithLaunch(launchID.String()).WithField("weighted_score", newScore).Info("launch crossed poten threshold")
	}

	return &launch.CastVoteResult{
		Success:         true,
		Weight:          weight,
		Multiplier:      kind,
		PromotionPoints: promotionPoints,
	}, nil
}

// RemoveVote deletes the voter's vote and decrements the launch aggregates,
// flooring at zero. The poten latch is an achievement and is never reverted.
func (s *VotingService) RemoveVote(ctx context.Context, launchID uuid.UUID, voterUsername string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM launches WHERE id = $1)`, launchID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check launch: %w", err)
	}
	if !exists {
		return apperr.NotFound("launch not found")
	}

	var weight int
	var isVerified bool
	var productType *launch.ProductType
	err = tx.QueryRow(ctx, `
		SELECT weight, is_verified, product_type_vote
		FROM launch_votes
		WHERE launch_id = $1 AND voter_username = $2`,
		launchID, voterUsername,
	).Scan(&weight, &isVerified, &productType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("vote not found")
		}
		return fmt.Errorf("failed to get vote: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM launch_votes WHERE launch_id = $1 AND voter_username = $2`,
		launchID, voterUsername,
	)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	verifiedDec := 0
	if isVerified {
		verifiedDec = 1
	}

	_, err = tx.Exec(ctx, `
		UPDATE launches
		SET vote_count = GREATEST(0, vote_count - 1),
		    weighted_score = GREATEST(0, weighted_score - $2),
		    vitamin_votes = GREATEST(0, vitamin_votes - $3),
		    painkiller_votes = GREATEST(0, painkiller_votes - $4),
		    candy_votes = GREATEST(0, candy_votes - $5),
		    verified_feedback_count = GREATEST(0, verified_feedback_count - $6),
		    updated_at = NOW()
		WHERE id = $1`,
		launchID, weight,
		categoryInc(productType, launch.ProductVitamin),
		categoryInc(productType, launch.ProductPainkiller),
		categoryInc(productType, launch.ProductCandy),
		verifiedDec,
	)
	if err != nil {
		return fmt.Errorf("failed to update launch counters: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.VotesRemoved.Inc()
	return nil
}

// classifyFeedback decides the multiplier band for a vote. A review is feedback
// of at least MinReviewLength after trimming; a verified review additionally
// requires a visit-to-return gap of at least MinVerifiedDwell.
func (s *VotingService) classifyFeedback(feedbackText string, visitedAt, returnedAt *time.Time) (rank.FeedbackKind, bool) {
	hasReview := len(strings.TrimSpace(feedbackText)) >= s.cfg.MinReviewLength

	isVerified := false
	if hasReview && visitedAt != nil && returnedAt != nil {
		isVerified = returnedAt.Sub(*visitedAt) >= s.cfg.MinVerifiedDwell
	}

	switch {
	case hasReview && isVerified:
		return rank.FeedbackVerifiedReview, true
	case hasReview:
		return rank.FeedbackReview, false
	default:
		return rank.FeedbackQuickVote, false
	}
}

func parseProductType(raw string) *launch.ProductType {
	switch launch.ProductType(raw) {
	case launch.ProductVitamin, launch.ProductPainkiller, launch.ProductCandy:
		pt := launch.ProductType(raw)
		return &pt
	default:
		return nil
	}
}

func productTypeArg(pt *launch.ProductType) *string {
	if pt == nil {
		return nil
	}
	s := string(*pt)
	return &s
}

func categoryInc(pt *launch.ProductType, want launch.ProductType) int {
	if pt != nil && *pt == want {
		return 1
	}
	return 0
}
