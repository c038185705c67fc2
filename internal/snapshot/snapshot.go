package snapshot

import "time"

// TopUser is one leaderboard entry inside the cached snapshot.
type TopUser struct {
	Username      string  `json:"username"`
	OverallRating float64 `json:"overall_rating"`
	Rank          int     `json:"rank"`
}

// Snapshot is the singleton leaderboard cache, rebuilt wholesale on each
// aggregation run. Reads are O(1): one row, no scans.
type Snapshot struct {
	TopUsers     []TopUser      `json:"top_users"`
	Distribution map[string]int `json:"distribution"`
	TotalUsers   int            `json:"total_users"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// Analysis is one scored profile in the population the aggregator reads.
type Analysis struct {
	Username      string    `json:"username" db:"username"`
	OverallRating float64   `json:"overall_rating" db:"overall_rating"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// UserRank is the estimate reconstructed from the cached distribution.
type UserRank struct {
	Rank       int `json:"rank"`
	Total      int `json:"total"`
	Percentile int `json:"percentile"`
}
