package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/orchestrator"
	"github.com/biomind/repurposing/pkg/pipeline"
	"github.com/biomind/repurposing/pkg/ports"
)

// fakeGraph is a ports.GraphRepository with no backing store: every lookup
// comes back empty, so the orchestrator's preload degrades gracefully and
// the stage pipeline runs purely on NER/literature/synth output, exercising
// newHandler's HTTP contract without a database.
type fakeGraph struct{}

func (fakeGraph) DrugTargets(ctx context.Context, drugID string) ([]domain.Edge, error)    { return nil, nil }
func (fakeGraph) DiseaseGenes(ctx context.Context, diseaseID string) ([]domain.Edge, error) { return nil, nil }
func (fakeGraph) PathwayEdges(ctx context.Context, seedIDs []string, maxHops int) ([]domain.Edge, error) {
	return nil, nil
}
func (fakeGraph) Neighbors(ctx context.Context, entityID string) ([]domain.Edge, error) { return nil, nil }
func (fakeGraph) Search(ctx context.Context, kind domain.EntityKind, text string) ([]domain.Entity, error) {
	return nil, nil
}
func (fakeGraph) UpsertEntity(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	return e, nil
}
func (fakeGraph) UpsertRelation(ctx context.Context, e domain.Edge) (domain.Edge, error) {
	return e, nil
}

type fakeNER struct{}

func (fakeNER) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	drug, err := domain.NewEntity("", "metformin", domain.KindDrug, domain.MethodNER, 0.9, nil, nil)
	if err != nil {
		return nil, err
	}
	disease, err := domain.NewEntity("", "breast cancer", domain.KindDisease, domain.MethodNER, 0.9, nil, nil)
	if err != nil {
		return nil, err
	}
	return []domain.Entity{*drug, *disease}, nil
}

type fakeLiterature struct{}

func (fakeLiterature) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	return []string{"123"}, nil
}

func (fakeLiterature) Fetch(ctx context.Context, pmids []string) ([]domain.Citation, error) {
	var out []domain.Citation
	for _, id := range pmids {
		c, err := domain.NewCitation("pubmed", id, "Metformin and AMPK activation in breast cancer",
			[]string{"Doe J"}, nil, "", "Metformin activates AMPK, which inhibits mTOR signaling.", 0.8)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// fakeSynth always declines (returns an error) so the reasoning stage falls
// back to its deterministic narrative, keeping the response predictable.
type fakeSynth struct{}

func (fakeSynth) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	return nil, nil
}
func (fakeSynth) GenerateHypothesis(ctx context.Context, drug, disease domain.Entity, paths []domain.PathwayPath, evidence []domain.Evidence) (string, string, error) {
	return "", "", assert.AnError
}
func (fakeSynth) ExplainPathway(ctx context.Context, path domain.PathwayPath) (string, error) {
	return "", assert.AnError
}

type fakeScorer struct{}

func (fakeScorer) ScoreRelation(ctx context.Context, subject, relation, object string, evidence []domain.Evidence) (float64, error) {
	return 0.7, nil
}
func (fakeScorer) ScoreEvidence(ctx context.Context, candidate domain.Candidate, ev domain.Evidence) (float64, error) {
	return 0.7, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(nopWriter{})

	deps := &pipeline.Deps{
		NER:        fakeNER{},
		Synth:      fakeSynth{},
		Literature: fakeLiterature{},
		Scorer:     fakeScorer{},
	}
	pl := pipeline.Default(deps, logger)

	var graph ports.GraphRepository = fakeGraph{}
	orch := orchestrator.New(graph, nil, nil, pl, nil, logger)

	return newHandler(orch, logger)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHandleHealth(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleQuery(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t))
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"text":       "Does metformin help treat breast cancer via AMPK?",
		"user_id":    "tester",
		"request_id": "req-1",
	})
	resp, err := http.Post(srv.URL+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed queryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "req-1", parsed.RequestID)
	assert.NotEmpty(t, parsed.Candidates)
}

func TestHandleQueryRejectsEmptyText(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t))
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{"text": ""})
	resp, err := http.Post(srv.URL+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandleAuditUnknownReport(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/reports/does-not-exist/audit")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleGraphProjectionAfterQuery(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t))
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"text":       "Does metformin help treat breast cancer via AMPK?",
		"request_id": "req-graph",
	})
	postResp, err := http.Post(srv.URL+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	postResp.Body.Close()
	require.Equal(t, http.StatusOK, postResp.StatusCode)

	resp, err := http.Get(srv.URL + "/reports/req-graph/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var view graphView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	for _, n := range view.Nodes {
		assert.False(t, domain.IsStopwordOrRelation(n.Label), "node label %q must not be a stopword/relation word", n.Label)
	}
}
