package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndUnmatchedPath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/polls/:pollId", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/statusonly", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/polls/:pollId", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))

	for _, p := range []string{"/api/polls/p_1", "/api/polls/p_2", "/random/abc", "/statusonly"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/polls/:pollId", "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v; want %v", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")); got != base404+1 {
		t.Fatalf("unmatched counter = %v; want %v", got, base404+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestDomainCounters(t *testing.T) {
	created := testutil.ToFloat64(pollsCreated)
	yes := testutil.ToFloat64(votesCast.WithLabelValues("yes"))
	locked := testutil.ToFloat64(pollsLocked)
	denied := testutil.ToFloat64(rateDecisions.WithLabelValues("vote", "denied"))

	ObservePollCreated()
	ObserveVote("yes")
	ObserveVote("yes")
	ObservePollLocked()
	observeRateDecision("vote", false)

	if testutil.ToFloat64(pollsCreated) != created+1 ||
		testutil.ToFloat64(votesCast.WithLabelValues("yes")) != yes+2 ||
		testutil.ToFloat64(pollsLocked) != locked+1 ||
		testutil.ToFloat64(rateDecisions.WithLabelValues("vote", "denied")) != denied+1 {
		t.Fatalf("domain counters did not move as expected")
	}
}
