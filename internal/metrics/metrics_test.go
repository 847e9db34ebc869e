package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLeaderboard(t *testing.T) {
	okBefore := testutil.ToFloat64(LeaderboardRequests.WithLabelValues("submit", "ok"))
	errBefore := testutil.ToFloat64(LeaderboardRequests.WithLabelValues("submit", "error"))

	ObserveLeaderboard("submit", nil)
	ObserveLeaderboard("submit", errors.New("boom"))
	ObserveLeaderboard("submit", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(LeaderboardRequests.WithLabelValues("submit", "ok")))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(LeaderboardRequests.WithLabelValues("submit", "error")))
}
