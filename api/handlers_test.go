package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/atlas"
	"github.com/poiesic/atlas/cognition"
	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/ingestion"
	"github.com/poiesic/atlas/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	engine, err := atlas.NewEngine(context.Background(), atlas.WithMetrics(m))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close(context.Background()) })

	srv := httptest.NewServer(NewRouter(engine, m, reg, nil))
	t.Cleanup(srv.Close)
	return srv, m
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)
	resp := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestThink(t *testing.T) {
	srv, m := newServer(t)

	resp := post(t, srv.URL+"/think", `{"prompt":"How do I automate my business?","context":{"user":"test"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[core.Response](t, resp)
	assert.Equal(t, 0.8, body.Confidence)
	assert.Len(t, body.Reasoning, 5)

	status := decode[core.Status](t, get(t, srv.URL+"/status"))
	assert.Equal(t, 1, status.ConversationsRemembered)
	assert.InDelta(t, 75.1, status.IntelligenceLevel, 1e-9)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/think", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("ok")))
}

func TestThink_StructuredContext(t *testing.T) {
	srv, _ := newServer(t)

	resp := post(t, srv.URL+"/think", `{"prompt":"How do I automate my business?","context":{"user":{"id":7},"priority":2}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.8, decode[core.Response](t, resp).Confidence)

	resp = post(t, srv.URL+"/think", `{"prompt":"help me learn","context":null}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestThink_BadRequest(t *testing.T) {
	srv, _ := newServer(t)

	for _, body := range []string{
		`{"prompt":""}`, `{"prompt":"   "}`, `not json`, `{"prompt":"x","extra":1}`,
		`{"prompt":"x","context":[1,2]}`, `{"prompt":"x","context":"text"}`,
	} {
		resp := post(t, srv.URL+"/think", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestAbsorb(t *testing.T) {
	srv, _ := newServer(t)

	resp := post(t, srv.URL+"/absorb", `{"timestamp":"2025-06-01T10:00:00Z","results":[
		{"success":true,"source":"blog","content_sample":["AI automation news","crypto markets"],"data_points":250}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[AbsorbResponse](t, resp)
	assert.Equal(t, 1, body.Absorbed)
	assert.Equal(t, []string{"blockchain_technology", "market_intelligence"}, body.Discovered)
	assert.InDelta(t, 2.5, body.Increment, 1e-9)

	status := decode[core.Status](t, get(t, srv.URL+"/status"))
	assert.Equal(t, "2025-06-01T10:00:00Z", status.LastLearning)
	assert.Equal(t, 7, status.ConceptsLearned)

	resp = post(t, srv.URL+"/absorb", `{"results":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInsightsAndConsolidate(t *testing.T) {
	srv, _ := newServer(t)

	post(t, srv.URL+"/think", `{"prompt":"help me learn automation"}`)

	insights := decode[core.CognitiveInsights](t, get(t, srv.URL+"/insights"))
	assert.Len(t, insights.TopConcepts, 5)
	assert.Len(t, insights.LearningEvolution, 1)

	resp := post(t, srv.URL+"/consolidate", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[atlas.ConsolidationReport](t, resp)
	assert.Zero(t, report.Reinforced)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	get(t, srv.URL+"/health")

	resp := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

type failingEngine struct{}

func (failingEngine) Think(context.Context, cognition.Query) (*core.Response, error) {
	return nil, errors.Join(atlas.ErrQueryFailed, errors.New("template exploded"))
}

func (failingEngine) Absorb(context.Context, *ingestion.Batch) (ingestion.Summary, error) {
	return ingestion.Summary{}, errors.New("boom")
}

func (failingEngine) Consolidate(context.Context) (atlas.ConsolidationReport, error) {
	return atlas.ConsolidationReport{}, atlas.ErrEngineClosed
}

func (failingEngine) Status() core.Status                       { return core.Status{} }
func (failingEngine) CognitiveInsights() core.CognitiveInsights { return core.CognitiveInsights{} }

func TestFailuresAreGeneric(t *testing.T) {
	srv := httptest.NewServer(NewRouter(failingEngine{}, nil, nil, nil))
	defer srv.Close()

	resp := post(t, srv.URL+"/think", `{"prompt":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, atlas.ErrQueryFailed.Error(), body.Error)
	assert.NotContains(t, body.Error, "exploded")

	resp = post(t, srv.URL+"/absorb", `{"results":[]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = post(t, srv.URL+"/consolidate", ``)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
