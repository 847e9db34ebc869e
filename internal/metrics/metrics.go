package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoundsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bugbusters_rounds_started_total",
			Help: "Total rounds started, restarts included",
		},
	)
	RoundsEnded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bugbusters_rounds_ended_total",
			Help: "Total rounds that ran out the countdown",
		},
	)
	Hits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bugbusters_hits_total",
			Help: "Total hits accepted while a round was running",
		},
	)
	Hops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bugbusters_hops_total",
			Help: "Total target relocations",
		},
	)
	FinalScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bugbusters_final_score",
			Help:    "Score at the end of each round",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bugbusters_active_sessions",
			Help: "Connected player sessions",
		},
	)
	LeaderboardRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bugbusters_leaderboard_requests_total",
			Help: "Leaderboard calls by operation and result",
		},
		[]string{"op", "result"},
	)
)

func init() {
	prometheus.MustRegister(RoundsStarted)
	prometheus.MustRegister(RoundsEnded)
	prometheus.MustRegister(Hits)
	prometheus.MustRegister(Hops)
	prometheus.MustRegister(FinalScore)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(LeaderboardRequests)
}

// ObserveLeaderboard records the outcome of a leaderboard call.
func ObserveLeaderboard(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	LeaderboardRequests.WithLabelValues(op, result).Inc()
}
