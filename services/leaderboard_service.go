package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/logger"
	"launchPadAPI/internal/metrics"
	"launchPadAPI/internal/snapshot"
)

const (
	snapshotType = "leaderboard"
	topUserLimit = 25
	bucketWidth  = 10
)

type LeaderboardService struct {
	db  DB
	log *logger.Logger
}

func NewLeaderboardService(db DB, log *logger.Logger) *LeaderboardService {
	return &LeaderboardService{db: db, log: log}
}

// UpsertAnalysis records one scored profile in the population the aggregator
// reads. The scoring pipeline that produces the ratings lives elsewhere.
func (s *LeaderboardService) UpsertAnalysis(ctx context.Context, username string, overallRating float64) error {
	if overallRating < 0 || overallRating > 100 {
		return apperr.Validation("overall rating must be between 0 and 100")
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO analyses (username, overall_rating, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (username) DO UPDATE SET overall_rating = $2, updated_at = NOW()`,
		username, overallRating,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}
	return nil
}

// RebuildSnapshot scans the full analysis population and replaces the cached
// snapshot wholesale: bounded top list, fixed-width rating buckets, total count.
// Reads against the snapshot stay O(1) regardless of population size.
func (s *LeaderboardService) RebuildSnapshot(ctx context.Context) error {
	rows, err := s.db.Query(ctx,
		`SELECT username, overall_rating FROM analyses ORDER BY overall_rating DESC, username ASC`,
	)
	if err != nil {
		return fmt.Errorf("failed to scan analyses: %w", err)
	}
	defer rows.Close()

	snap := snapshot.Snapshot{
		Distribution: emptyDistribution(),
		GeneratedAt:  time.Now(),
	}

	for rows.Next() {
		var username string
		var rating float64
		if err := rows.Scan(&username, &rating); err != nil {
			return fmt.Errorf("failed to scan analysis: %w", err)
		}

		snap.TotalUsers++
		snap.Distribution[bucketKey(rating)]++
		if len(snap.TopUsers) < topUserLimit {
			snap.TopUsers = append(snap.TopUsers, snapshot.TopUser{
				Username:      username,
				OverallRating: rating,
				Rank:          snap.TotalUsers,
			})
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating analyses: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO leaderboard_stats (type, data, generated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (type) DO UPDATE SET data = $2, generated_at = $3`,
		snapshotType, data, snap.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	metrics.SnapshotRebuilds.Inc()
	s.log.WithField("total_users", snap.TotalUsers).Info("leaderboard snapshot rebuilt")
	return nil
}

// GetSnapshot returns the cached snapshot, or nil when no aggregation has run.
func (s *LeaderboardService) GetSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM leaderboard_stats WHERE type = $1`, snapshotType,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// GetUserRank estimates a rank and percentile for a rating from the cached
// distribution alone. Within-bucket order is unknown, so half of the rating's
// own bucket is counted as ranking higher.
func (s *LeaderboardService) GetUserRank(ctx context.Context, rating float64) (*snapshot.UserRank, error) {
	snap, err := s.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil || snap.TotalUsers == 0 {
		return nil, apperr.NotFound("leaderboard snapshot not available")
	}

	result := rankFromDistribution(snap.Distribution, snap.TotalUsers, rating)
	return &result, nil
}

func rankFromDistribution(distribution map[string]int, totalUsers int, rating float64) snapshot.UserRank {
	own := bucketKey(rating)
	higher := 0
	for start := 0; start < 100; start += bucketWidth {
		key := fmt.Sprintf("%d-%d", start, start+bucketWidth)
		if key == own {
			higher += distribution[key] / 2
		} else if float64(start) > rating {
			higher += distribution[key]
		}
	}

	rankPos := higher + 1
	percentile := int(math.Round(float64(totalUsers-rankPos+1) / float64(totalUsers) * 100))

	return snapshot.UserRank{
		Rank:       rankPos,
		Total:      totalUsers,
		Percentile: percentile,
	}
}

// bucketKey maps a 0-100 rating to its fixed-width band; 100 lands in "90-100".
func bucketKey(rating float64) string {
	idx := int(rating) / bucketWidth
	if idx < 0 {
		idx = 0
	}
	if idx > 9 {
		idx = 9
	}
	return fmt.Sprintf("%d-%d", idx*bucketWidth, (idx+1)*bucketWidth)
}

func emptyDistribution() map[string]int {
	dist := make(map[string]int, 10)
	for start := 0; start < 100; start += bucketWidth {
		dist[fmt.Sprintf("%d-%d", start, start+bucketWidth)] = 0
	}
	return dist
}
