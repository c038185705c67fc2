package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/launch"
	"launchPadAPI/internal/logger"
	"launchPadAPI/internal/metrics"
	"launchPadAPI/internal/week"
)

const maxLaunchesPerWeek = 3

var shippingPointsByRank = map[int]int{1: 200, 2: 150, 3: 100}

// SubmissionProvisioner is the slice of StationService the scheduler needs.
type SubmissionProvisioner interface {
	CreateStationForLaunch(ctx context.Context, launchID uuid.UUID) error
}

type LaunchService struct {
	db       DB
	stations SubmissionProvisioner
	log      *logger.Logger
}

func NewLaunchService(db DB, stations SubmissionProvisioner, log *logger.Logger) *LaunchService {
	return &LaunchService{db: db, stations: stations, log: log}
}

// SubmitLaunch inserts a launch for the target week (current week when the
// request leaves it empty), enforcing the weekly cap and idea-link rules, then
// provisions the launch's station.
func (s *LaunchService) SubmitLaunch(ctx context.Context, username string, req *launch.SubmitRequest) (uuid.UUID, error) {
	if req.Title == "" {
		return uuid.Nil, apperr.Validation("title is required")
	}

	weekNumber := req.WeekNumber
	if weekNumber == "" {
		weekNumber = week.Current()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var submitted int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM launches WHERE username = $1 AND week_number = $2`,
		username, weekNumber,
	).Scan(&submitted)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to count weekly launches: %w", err)
	}
	if submitted >= maxLaunchesPerWeek {
		return uuid.Nil, apperr.Validation("weekly launch cap of %d reached", maxLaunchesPerWeek)
	}

	var linkedIdeaID *uuid.UUID
	if req.LinkedIdeaID != nil && *req.LinkedIdeaID != "" {
		ideaID, err := uuid.Parse(*req.LinkedIdeaID)
		if err != nil {
			return uuid.Nil, apperr.Validation("invalid idea id")
		}

		var ideaOwner string
		var ideaStatus launch.IdeaStatus
		err = tx.QueryRow(ctx, `SELECT username, status FROM ideas WHERE id = $1`, ideaID).Scan(&ideaOwner, &ideaStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return uuid.Nil, apperr.NotFound("idea not found")
			}
			return uuid.Nil, fmt.Errorf("failed to get idea: %w", err)
		}
		if ideaOwner != username {
			return uuid.Nil, apperr.Validation("idea belongs to another user")
		}
		if ideaStatus != launch.IdeaValidated {
			return uuid.Nil, apperr.Validation("idea is not validated")
		}

		var alreadyLinked bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM launches WHERE linked_idea_id = $1)`, ideaID,
		).Scan(&alreadyLinked)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to check idea link: %w", err)
		}
		if alreadyLinked {
			return uuid.Nil, apperr.Validation("idea is already linked to a launch")
		}

		linkedIdeaID = &ideaID
	}

	launchID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO launches (id, username, title, description, demo_url, week_number, status, linked_idea_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`,
		launchID, username, req.Title, req.Description, req.DemoURL, weekNumber, string(launch.StatusActive), linkedIdeaID,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert launch: %w", err)
	}

	if linkedIdeaID != nil {
		_, err = tx.Exec(ctx,
			`UPDATE ideas SET status = $2 WHERE id = $1`,
			*linkedIdeaID, string(launch.IdeaLaunched),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to mark idea launched: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.stations.CreateStationForLaunch(ctx, launchID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to provision station: %w", err)
	}

	s.log.WithLaunch(launchID.String()).WithField("week_number", weekNumber).Info("launch submitted")
	return launchID, nil
}

// GetCurrentWeekLaunches lists this week's launches, highest score first.
func (s *LaunchService) GetCurrentWeekLaunches(ctx context.Context) ([]*launch.Launch, error) {
	return s.GetWeeklyLaunches(ctx, week.Current())
}

// GetWeeklyLaunches lists a week's launches, highest score first.
func (s *LaunchService) GetWeeklyLaunches(ctx context.Context, weekNumber string) ([]*launch.Launch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, title, description, demo_url, week_number, vote_count, weighted_score,
		       is_poten, rank, status, vitamin_votes, painkiller_votes, candy_votes,
		       verified_feedback_count, linked_idea_id, created_at, updated_at
		FROM launches
		WHERE week_number = $1
		ORDER BY weighted_score DESC, created_at ASC, id ASC`,
		weekNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list launches: %w", err)
	}
	defer rows.Close()

	var launches []*launch.Launch
	for rows.Next() {
		l := &launch.Launch{}
		err := rows.Scan(
			&l.ID, &l.Username, &l.Title, &l.Description, &l.DemoURL, &l.WeekNumber,
			&l.VoteCount, &l.WeightedScore, &l.IsPoten, &l.Rank, &l.Status,
			&l.VitaminVotes, &l.PainkillerVotes, &l.CandyVotes,
			&l.VerifiedFeedbackCount, &l.LinkedIdeaID, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		launches = append(launches, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating launches: %w", err)
	}

	return launches, nil
}

// FinalizeCurrentWeek closes the week containing now.
func (s *LaunchService) FinalizeCurrentWeek(ctx context.Context) (*launch.FinalizeResult, error) {
	return s.FinalizeWeek(ctx, week.Current())
}

// FinalizePreviousWeek closes the week containing now minus seven days. The
// finalize worker uses this so a run shortly after the week boundary closes the
// week that just ended.
func (s *LaunchService) FinalizePreviousWeek(ctx context.Context) (*launch.FinalizeResult, error) {
	return s.FinalizeWeek(ctx, week.Previous())
}

// FinalizeWeek ranks the week's launches, pays out shipping points, closes every
// launch, and records the WeeklyResult. Calling it again for the same week is a
// structured no-op, never an error, so redundant cron fires are harmless.
// Ties on weighted score break toward the earliest submission.
func (s *LaunchService) FinalizeWeek(ctx context.Context, weekNumber string) (*launch.FinalizeResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var alreadyFinalized bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM weekly_results WHERE week_number = $1)`, weekNumber,
	).Scan(&alreadyFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check weekly result: %w", err)
	}
	if alreadyFinalized {
		return &launch.FinalizeResult{Success: false, Reason: "Week already finalized"}, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT id, username, vote_count, weighted_score
		FROM launches
		WHERE week_number = $1
		ORDER BY weighted_score DESC, created_at ASC, id ASC`,
		weekNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list launches: %w", err)
	}

	type entry struct {
		id        uuid.UUID
		username  string
		voteCount int
		score     int
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.username, &e.voteCount, &e.score); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating launches: %w", err)
	}

	if len(entries) == 0 {
		return &launch.FinalizeResult{Success: false, Reason: "No launches this week"}, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE launches SET status = $2, updated_at = NOW() WHERE week_number = $1`,
		weekNumber, string(launch.StatusClosed),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to close launches: %w", err)
	}

	totalVotes := 0
	for _, e := range entries {
		totalVotes += e.voteCount
	}

	var winners []launch.Winner
	for i, e := range entries {
		if i >= 3 {
			break
		}
		position := i + 1

		_, err = tx.Exec(ctx,
			`UPDATE launches SET rank = $2, updated_at = NOW() WHERE id = $1`,
			e.id, position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to set rank: %w", err)
		}

		weeklyWinInc := 0
		if position == 1 {
			weeklyWinInc = 1
		}
		points := shippingPointsByRank[position]
		_, err = tx.Exec(ctx, `
			UPDATE builder_ranks
			SET shipping_points = shipping_points + $2,
			    weekly_wins = weekly_wins + $3,
			    tier_score = shipping_points + $2 + community_karma + trust_score,
			    updated_at = NOW()
			WHERE username = $1`,
			e.username, points, weeklyWinInc,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to award shipping points: %w", err)
		}

		winners = append(winners, launch.Winner{
			Rank:     position,
			LaunchID: e.id,
			Username: e.username,
			Score:    e.score,
		})
	}

	winnersJSON, err := json.Marshal(winners)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal winners: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO weekly_results (id, week_number, winners, total_launches, total_votes, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), weekNumber, winnersJSON, len(entries), totalVotes, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert weekly result: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.WeeksFinalized.Inc()
	s.log.WithWeek(weekNumber).WithField("winners", len(winners)).Info("week finalized")

	return &launch.FinalizeResult{Success: true, Winners: winners}, nil
}

// GetWeeklyResult returns the finalized result for a week, if any.
func (s *LaunchService) GetWeeklyResult(ctx context.Context, weekNumber string) (*launch.WeeklyResult, error) {
	var result launch.WeeklyResult
	var winnersJSON []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, week_number, winners, total_launches, total_votes, finalized_at
		FROM weekly_results WHERE week_number = $1`,
		weekNumber,
	).Scan(&result.ID, &result.WeekNumber, &winnersJSON, &result.TotalLaunches, &result.TotalVotes, &result.FinalizedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("weekly result not found")
		}
		return nil, fmt.Errorf("failed to get weekly result: %w", err)
	}

	if err := json.Unmarshal(winnersJSON, &result.Winners); err != nil {
		return nil, fmt.Errorf("failed to unmarshal winners: %w", err)
	}

	return &result, nil
}
