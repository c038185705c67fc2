package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/launch"
	"launchPadAPI/internal/logger"
)

type fakeSubmissionProvisioner struct {
	calls int
}

func (f *fakeSubmissionProvisioner) CreateStationForLaunch(ctx context.Context, launchID uuid.UUID) error {
	f.calls++
	return nil
}

func newLaunchService(t *testing.T, provisioner *fakeSubmissionProvisioner) (*LaunchService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewLaunchService(mock, provisioner, logger.New("test")), mock
}

func TestLaunchService_SubmitLaunch_TitleRequired(t *testing.T) {
	svc, _ := newLaunchService(t, &fakeSubmissionProvisioner{})

	_, err := svc.SubmitLaunch(context.Background(), "alice", &launch.SubmitRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestLaunchService_SubmitLaunch_WeeklyCap(t *testing.T) {
	svc, mock := newLaunchService(t, &fakeSubmissionProvisioner{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("alice", "2025-W24").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := svc.SubmitLaunch(context.Background(), "alice", &launch.SubmitRequest{
		Title:      "One Too Many",
		WeekNumber: "2025-W24",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "cap")
}

func TestLaunchService_SubmitLaunch_WithLinkedIdea(t *testing.T) {
	provisioner := &fakeSubmissionProvisioner{}
	svc, mock := newLaunchService(t, provisioner)

	ideaID := uuid.New()
	ideaIDStr := ideaID.String()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT username, status FROM ideas").
		WithArgs(ideaID).
		WillReturnRows(pgxmock.NewRows([]string{"username", "status"}).AddRow("alice", launch.IdeaValidated))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(ideaID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO launches").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE ideas SET status").
		WithArgs(ideaID, string(launch.IdeaLaunched)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	launchID, err := svc.SubmitLaunch(context.Background(), "alice", &launch.SubmitRequest{
		Title:        "Idea Made Real",
		WeekNumber:   "2025-W24",
		LinkedIdeaID: &ideaIDStr,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, launchID)
	assert.Equal(t, 1, provisioner.calls)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLaunchService_SubmitLaunch_IdeaOwnedByAnotherUser(t *testing.T) {
	svc, mock := newLaunchService(t, &fakeSubmissionProvisioner{})

	ideaID := uuid.New()
	ideaIDStr := ideaID.String()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT username, status FROM ideas").
		WillReturnRows(pgxmock.NewRows([]string{"username", "status"}).AddRow("mallory", launch.IdeaValidated))
	mock.ExpectRollback()

	_, err := svc.SubmitLaunch(context.Background(), "alice", &launch.SubmitRequest{
		Title:        "Not Yours",
		WeekNumber:   "2025-W24",
		LinkedIdeaID: &ideaIDStr,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestLaunchService_SubmitLaunch_IdeaNotValidated(t *testing.T) {
	svc, mock := newLaunchService(t, &fakeSubmissionProvisioner{})

	ideaID := uuid.New()
	ideaIDStr := ideaID.String()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT username, status FROM ideas").
		WillReturnRows(pgxmock.NewRows([]string{"username", "status"}).AddRow("alice", launch.IdeaStatus("draft")))
	mock.ExpectRollback()

	_, err := svc.SubmitLaunch(context.Background(), "alice", &launch.SubmitRequest{
		Title:        "Too Early",
		WeekNumber:   "2025-W24",
		LinkedIdeaID: &ideaIDStr,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestLaunchService_FinalizeWeek_Idempotent(t *testing.T) {
	svc, mock := newLaunchService(t, &fakeSubmissionProvisioner{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("2025-W24").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	result, err := svc.FinalizeWeek(context.Background(), "2025-W24")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Week already finalized", result.Reason)
}

func TestLaunchService_FinalizeWeek_NoLaunches(t *testing.T) {
	svc, mock := newLaunchService(t, &fakeSubmissionProvisioner{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT id, username, vote_count, weighted_score").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "vote_count", "weighted_score"}))
	mock.ExpectRollback()

	result, err := svc.FinalizeWeek(context.Background(), "2025-W24")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No launches this week", result.Reason)
}

func TestLaunchService_FinalizeWeek_RanksTopThree(t *testing.T) {
	svc, mock := newLaunchService(t, &fakeSubmissionProvisioner{})

	first, second, third, fourth := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	// Rows arrive pre-ordered by score, then submission time, then id.
	mock.ExpectQuery("SELECT id, username, vote_count, weighted_score").
		WithArgs("2025-W24").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "vote_count", "weighted_score"}).
			AddRow(first, "alice", 12, 40).
			AddRow(second, "bob", 9, 25).
			AddRow(third, "carol", 7, 25).
			AddRow(fourth, "dave", 2, 4))
	mock.ExpectExec("UPDATE launches SET status").
		WithArgs("2025-W24", string(launch.StatusClosed)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	mock.ExpectExec("UPDATE launches SET rank").
		WithArgs(first, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE builder_ranks").
		WithArgs("alice", 200, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE launches SET rank").
		WithArgs(second, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE builder_ranks").
		WithArgs("bob", 150, 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE launches SET rank").
		WithArgs(third, 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE builder_ranks").
		WithArgs("carol", 100, 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec("INSERT INTO weekly_results").
		WithArgs(pgxmock.AnyArg(), "2025-W24", pgxmock.AnyArg(), 4, 30, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	result, err := svc.FinalizeWeek(context.Background(), "2025-W24")
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Winners, 3)
	assert.Equal(t, "alice", result.Winners[0].Username)
	assert.Equal(t, 1, result.Winners[0].Rank)
	assert.Equal(t, 40, result.Winners[0].Score)
	assert.Equal(t, "bob", result.Winners[1].Username)
	assert.Equal(t, "carol", result.Winners[2].Username)

	require.NoError(t, mock.ExpectationsWereMet())
}
