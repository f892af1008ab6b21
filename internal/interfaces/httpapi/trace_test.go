package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/usecase"
)

func TestRouter_SpansFollowRoutePattern(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	rankings := &stubRankings{entries: []usecase.RankingEntry{{UserID: 42, Rank: 0, Score: 3}}}
	router := newTestRouter(stubJobs{}, &stubCrawler{}, rankings)

	rec := doRequest(t, router, http.MethodGet, "/v1/internal/rankings/total/nearby/42", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, router, http.MethodGet, "/healthz", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, span := range recorder.Ended() {
		byName[span.Name()] = span
	}
	require.Len(t, byName, 2, "trial routes must not be traced")

	server, ok := byName["GET /v1/internal/rankings/{scope}/nearby/{userID}"]
	require.True(t, ok, "server span is named after the chi route")
	assert.Contains(t, server.Attributes(), attribute.String("http.route", "/v1/internal/rankings/{scope}/nearby/{userID}"))

	handler, ok := byName["httpapi.Handler.NearbyRanking"]
	require.True(t, ok)
	assert.Equal(t, server.SpanContext().SpanID(), handler.Parent().SpanID())
}
