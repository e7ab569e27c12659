// Package ner implements the NERExtractor port (pkg/ports.NERExtractor): a
// remote HTTP named-entity extractor with a deterministic gazetteer/regex
// fallback when the remote service is unavailable or disabled. Uses the
// pkg/shared/http client wrapper idiom for the remote path; the fallback has
// no ecosystem library to reach for, so it is hand-rolled scanning over the
// same gazetteer the orchestrator uses for query hints.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/biomind/repurposing/internal/config"
	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/resilience"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// Extractor is the remote-first, gazetteer-fallback NERExtractor.
type Extractor struct {
	http          *http.Client
	endpoint      string
	breaker       *resilience.Breaker
	fallbackOnly  bool
	minConfidence float64
}

func New(cfg config.NERConfig, breaker *resilience.Breaker) *Extractor {
	return &Extractor{
		http:          &http.Client{Timeout: cfg.Timeout},
		endpoint:      cfg.Endpoint,
		breaker:       breaker,
		fallbackOnly:  cfg.FallbackOnly || cfg.Endpoint == "",
		minConfidence: cfg.MinConfidence,
	}
}

type remoteSpan struct {
	Text       string  `json:"text"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

type remoteResponse struct {
	Spans []remoteSpan `json:"spans"`
}

// Extract returns candidate entities found in text. Remote
// extraction is attempted first unless disabled; on any remote failure, or
// when disabled, the deterministic gazetteer fallback runs instead, never
// both, so the stage always gets exactly one extraction_method tag.
func (x *Extractor) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	if !x.fallbackOnly {
		entities, err := x.extractRemote(ctx, text)
		if err == nil {
			return entities, nil
		}
	}
	return x.extractFallback(text), nil
}

func (x *Extractor) extractRemote(ctx context.Context, text string) ([]domain.Entity, error) {
	run := func(ctx context.Context) (interface{}, error) {
		body, err := json.Marshal(map[string]string{"text": text})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.endpoint+"/extract", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := x.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return nil, coreerrors.NetworkError("ner extract", x.endpoint, domainStatusError(resp.StatusCode))
		}
		var out remoteResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, coreerrors.New(coreerrors.KindExternalContractBroken, err)
		}
		return out.Spans, nil
	}
	var res interface{}
	var err error
	if x.breaker != nil {
		res, err = x.breaker.Do(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		return nil, err
	}

	spans := res.([]remoteSpan)
	var entities []domain.Entity
	for _, sp := range spans {
		if sp.Confidence < x.minConfidence {
			continue
		}
		e, err := domain.NewEntity("", sp.Text, domain.EntityKind(sp.Kind), domain.MethodNER, sp.Confidence, nil, nil)
		if err != nil {
			continue
		}
		entities = append(entities, *e)
	}
	return entities, nil
}

// extractFallback scans text against the gazetteer and returns one entity
// per entry contained in text, ordered by name. Every contained entry is
// reported; an entry that is part of a longer matching entry is not
// dropped in its favour.
func (x *Extractor) extractFallback(text string) []domain.Entity {
	lower := strings.ToLower(text)
	type hit struct {
		name string
		kind domain.EntityKind
	}
	var hits []hit
	for _, name := range append(append([]string{}, knownDrugs...), knownDiseases...) {
		if strings.Contains(lower, name) {
			kind, ok := gazetteerKind(name)
			if ok {
				hits = append(hits, hit{name, kind})
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].name < hits[j].name })

	seen := map[string]bool{}
	var entities []domain.Entity
	for _, h := range hits {
		if seen[h.name] {
			continue
		}
		seen[h.name] = true
		e, err := domain.NewEntity("", h.name, h.kind, domain.MethodPattern, 0.6, nil, nil)
		if err != nil {
			continue
		}
		entities = append(entities, *e)
	}
	return entities
}

type statusError int

func (s statusError) Error() string { return http.StatusText(int(s)) }

func domainStatusError(code int) error { return statusError(code) }
