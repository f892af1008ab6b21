package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObservePollTick("ok", time.Second)
	r.IncSourceFailure("score")
	r.SetArmedJobs("poll", 3)
	r.IncJobRun("poll")
	r.AddReconciled("Win", 2)
	r.IncRankingSyncFailure("refresh")
	r.AddCrawledGames(4)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
}

func TestRecorder_ExposesCounters(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObservePollTick("finalized", 20*time.Millisecond)
	r.AddReconciled("Win", 3)
	r.AddReconciled("Lose", 0)
	r.SetArmedJobs("poll", 2)

	if got := testutil.ToFloat64(r.reconciledRecords.WithLabelValues("Win")); got != 3 {
		t.Fatalf("unexpected reconciled count: got=%v want=%v", got, 3)
	}
	if got := testutil.ToFloat64(r.armedJobs.WithLabelValues("poll")); got != 2 {
		t.Fatalf("unexpected armed jobs: got=%v want=%v", got, 2)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "victoryfairy_score_poll_ticks_total") {
		t.Fatalf("expected poll tick metric in exposition output")
	}
}
