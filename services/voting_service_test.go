package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/launch"
	"launchPadAPI/internal/logger"
	"launchPadAPI/internal/rank"
)

type fakeProvisioner struct {
	calls     int
	launchIDs []uuid.UUID
}

func (f *fakeProvisioner) CreateStationFromPoten(ctx context.Context, launchID uuid.UUID) error {
	f.calls++
	f.launchIDs = append(f.launchIDs, launchID)
	return nil
}

func newVotingService(t *testing.T, provisioner *fakeProvisioner) (*VotingService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := NewVotingService(mock, rank.DefaultTierConfig(), provisioner, false, logger.New("test"))
	return svc, mock
}

func TestVotingService_ClassifyFeedback(t *testing.T) {
	svc, _ := newVotingService(t, &fakeProvisioner{})

	longReview := "This launch solved a real problem for me and the onboarding was smooth."
	visited := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	returnedLate := visited.Add(12 * time.Minute)
	returnedEarly := visited.Add(3 * time.Minute)

	cases := []struct {
		name         string
		feedback     string
		visitedAt    *time.Time
		returnedAt   *time.Time
		wantKind     rank.FeedbackKind
		wantVerified bool
	}{
		{"no feedback", "", nil, nil, rank.FeedbackQuickVote, false},
		{"short feedback", "nice!", nil, nil, rank.FeedbackQuickVote, false},
		{"whitespace padding does not count", "   great   ", nil, nil, rank.FeedbackQuickVote, false},
		{"long feedback is a review", longReview, nil, nil, rank.FeedbackReview, false},
		{"review with long dwell is verified", longReview, &visited, &returnedLate, rank.FeedbackVerifiedReview, true},
		{"review with short dwell stays a review", longReview, &visited, &returnedEarly, rank.FeedbackReview, false},
		{"dwell without review stays a quick vote", "ok", &visited, &returnedLate, rank.FeedbackQuickVote, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, verified := svc.classifyFeedback(tc.feedback, tc.visitedAt, tc.returnedAt)
			assert.Equal(t, tc.wantKind, kind)
			assert.Equal(t, tc.wantVerified, verified)
		})
	}
}

func TestVotingService_CastVote_QuickVote(t *testing.T) {
	provisioner := &fakeProvisioner{}
	svc, mock := newVotingService(t, provisioner)

	launchID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"tier"}).AddRow(3))
	mock.ExpectQuery("SELECT username, is_poten FROM launches").
		WithArgs(launchID).
		WillReturnRows(pgxmock.NewRows([]string{"username", "is_poten"}).AddRow("bob", false))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(launchID, "alice").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO launch_votes").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("UPDATE launches").
		WillReturnRows(pgxmock.NewRows([]string{"weighted_score", "is_poten"}).AddRow(2, false))
	mock.ExpectExec("UPDATE builder_ranks").
		WithArgs("alice", 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	result, err := svc.CastVote(context.Background(), launchID, "alice", launch.CastVoteRequest{})
	require.NoError(t, err)

	// Tier 3 weighs 2, quick vote multiplier 1.
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Weight)
	assert.Equal(t, rank.FeedbackQuickVote, result.Multiplier)
	assert.Equal(t, 1, result.PromotionPoints)
	assert.Zero(t, provisioner.calls)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVotingService_CastVote_VerifiedReviewCrossesThreshold(t *testing.T) {
	provisioner := &fakeProvisioner{}
	svc, mock := newVotingService(t, provisioner)

	launchID := uuid.New()
	review := "Shipped this into my workflow the same day; the demo alone was worth the visit."
	visited := time.Now().Add(-30 * time.Minute)
	returned := visited.Add(15 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WithArgs("carol").
		WillReturnRows(pgxmock.NewRows([]string{"tier"}).AddRow(5))
	mock.ExpectQuery("SELECT username, is_poten FROM launches").
		WithArgs(launchID).
		WillReturnRows(pgxmock.NewRows([]string{"username", "is_poten"}).AddRow("bob", false))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO launch_votes").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Tier 5 verified review: 5 x 5 = 25, crossing 0 -> 25 in one vote.
	mock.ExpectQuery("UPDATE launches").
		WillReturnRows(pgxmock.NewRows([]string{"weighted_score", "is_poten"}).AddRow(25, true))
	mock.ExpectExec("INSERT INTO launch_poten_events").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE builder_ranks SET poten_count").
		WithArgs("bob").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE builder_ranks").
		WithArgs("carol", 10).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	// Post-commit re-read guards provisioning against stale state.
	mock.ExpectQuery("SELECT is_poten FROM launches").
		WithArgs(launchID).
		WillReturnRows(pgxmock.NewRows([]string{"is_poten"}).AddRow(true))

	result, err := svc.CastVote(context.Background(), launchID, "carol", launch.CastVoteRequest{
		FeedbackText: review,
		VisitedAt:    &visited,
		ReturnedAt:   &returned,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, result.Weight)
	assert.Equal(t, rank.FeedbackVerifiedReview, result.Multiplier)
	assert.Equal(t, 10, result.PromotionPoints)

	require.Equal(t, 1, provisioner.calls)
	assert.Equal(t, launchID, provisioner.launchIDs[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVotingService_CastVote_TierTooLow(t *testing.T) {
	svc, mock := newVotingService(t, &fakeProvisioner{})

	launchID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WithArgs("newbie").
		WillReturnRows(pgxmock.NewRows([]string{"tier"}).AddRow(0))
	mock.ExpectRollback()

	_, err := svc.CastVote(context.Background(), launchID, "newbie", launch.CastVoteRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestVotingService_CastVote_NoRankRowCannotVote(t *testing.T) {
	svc, mock := newVotingService(t, &fakeProvisioner{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CastVote(context.Background(), uuid.New(), "ghost", launch.CastVoteRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestVotingService_CastVote_LaunchNotFound(t *testing.T) {
	svc, mock := newVotingService(t, &fakeProvisioner{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WillReturnRows(pgxmock.NewRows([]string{"tier"}).AddRow(2))
	mock.ExpectQuery("SELECT username, is_poten FROM launches").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CastVote(context.Background(), uuid.New(), "alice", launch.CastVoteRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestVotingService_CastVote_SelfVoteRejected(t *testing.T) {
	svc, mock := newVotingService(t, &fakeProvisioner{})

	launchID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WillReturnRows(pgxmock.NewRows([]string{"tier"}).AddRow(4))
	mock.ExpectQuery("SELECT username, is_poten FROM launches").
		WillReturnRows(pgxmock.NewRows([]string{"username", "is_poten"}).AddRow("alice", false))
	mock.ExpectRollback()

	_, err := svc.CastVote(context.Background(), launchID, "alice", launch.CastVoteRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "own launch")
}

func TestVotingService_CastVote_DuplicateRejected(t *testing.T) {
	svc, mock := newVotingService(t, &fakeProvisioner{})

	launchID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WillReturnRows(pgxmock.NewRows([]string{"tier"}).AddRow(4))
	mock.ExpectQuery("SELECT username, is_poten FROM launches").
		WillReturnRows(pgxmock.NewRows([]string{"username", "is_poten"}).AddRow("bob", false))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.CastVote(context.Background(), launchID, "alice", launch.CastVoteRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "already voted")
}

func TestVotingService_CastVote_AlreadyPotenDoesNotReprovision(t *testing.T) {
	provisioner := &fakeProvisioner{}
	svc, mock := newVotingService(t, provisioner)

	launchID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT tier FROM builder_ranks").
		WillReturnRows(pgxmock.NewRows([]string{"tier"}).AddRow(5))
	mock.ExpectQuery("SELECT username, is_poten FROM launches").
		WillReturnRows(pgxmock.NewRows([]string{"username", "is_poten"}).AddRow("bob", true))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO launch_votes").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("UPDATE launches").
		WillReturnRows(pgxmock.NewRows([]string{"weighted_score", "is_poten"}).AddRow(30, true))
	mock.ExpectExec("UPDATE builder_ranks").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, err := svc.CastVote(context.Background(), launchID, "dave", launch.CastVoteRequest{})
	require.NoError(t, err)
	assert.Zero(t, provisioner.calls)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVotingService_RemoveVote(t *testing.T) {
	svc, mock := newVotingService(t, &fakeProvisioner{})

	launchID := uuid.New()
	productType := launch.ProductVitamin

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(launchID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT weight, is_verified, product_type_vote").
		WithArgs(launchID, "alice").
		WillReturnRows(pgxmock.NewRows([]string{"weight", "is_verified", "product_type_vote"}).AddRow(25, true, &productType))
	mock.ExpectExec("DELETE FROM launch_votes").
		WithArgs(launchID, "alice").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("UPDATE launches").
		WithArgs(launchID, 25, 1, 0, 0, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := svc.RemoveVote(context.Background(), launchID, "alice")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVotingService_RemoveVote_NotFound(t *testing.T) {
	svc, mock := newVotingService(t, &fakeProvisioner{})

	launchID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT weight, is_verified, product_type_vote").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := svc.RemoveVote(context.Background(), launchID, "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
