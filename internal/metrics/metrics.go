package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	VotesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_cast_total",
			Help: "Total launch votes cast, by feedback multiplier",
		},
		[]string{"multiplier"},
	)
	VotesRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "votes_removed_total",
			Help: "Total launch votes removed",
		},
	)
	StationsProvisioned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stations_provisioned_total",
			Help: "Stations auto-created, by origin (submission or poten)",
		},
		[]string{"origin"},
	)
	WeeksFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weeks_finalized_total",
			Help: "Weekly competitions finalized",
		},
	)
	SnapshotRebuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leaderboard_snapshot_rebuilds_total",
			Help: "Leaderboard snapshot rebuild runs",
		},
	)
)

// Register registers the domain counters. Call once from main.go.
func Register() {
	prometheus.MustRegister(VotesCast)
	prometheus.MustRegister(VotesRemoved)
	prometheus.MustRegister(StationsProvisioned)
	prometheus.MustRegister(WeeksFinalized)
	prometheus.MustRegister(SnapshotRebuilds)
}
