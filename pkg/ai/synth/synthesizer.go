// Package synth implements the Synthesizer port (pkg/ports.Synthesizer) on
// top of the Anthropic Messages API, using the pkg/ai/llm.NewClient
// provider-switch constructor idiom applied to a single always-on provider,
// since the synthesizer is one black-box collaborator rather than a
// provider menu.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/biomind/repurposing/internal/config"
	"github.com/biomind/repurposing/pkg/ai/schema"
	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/resilience"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// Synthesizer generates hypothesis text and entity extractions from an
// Anthropic model.
type Synthesizer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	breaker   *resilience.Breaker
}

func New(cfg config.SynthesizerConfig, breaker *resilience.Breaker) *Synthesizer {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return &Synthesizer{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(cfg.Model),
		maxTokens: maxTokens,
		breaker:   breaker,
	}
}

// ExtractEntities asks the synthesizer for entities the NER extractor may
// have missed.
func (s *Synthesizer) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	prompt := fmt.Sprintf(
		"Extract biomedical entities (drug, disease, gene, protein, pathway, phenotype) "+
			"mentioned in this text. Respond with JSON only: "+
			`{"entities":[{"name":"...","kind":"...","confidence":0.0}]}`+
			"\n\nText: %s", text)

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Validate(schema.Extraction, raw)
	if err != nil {
		return nil, err
	}
	items, _ := doc["entities"].([]interface{})
	var entities []domain.Entity
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		kind, _ := m["kind"].(string)
		confidence, _ := m["confidence"].(float64)
		e, err := domain.NewEntity("", name, domain.EntityKind(kind), domain.MethodSynthesizer, confidence, nil, nil)
		if err != nil {
			continue
		}
		entities = append(entities, *e)
	}
	return entities, nil
}

// GenerateHypothesis asks the synthesizer to narrate a drug-repurposing
// hypothesis from the accepted mechanism paths and evidence.
func (s *Synthesizer) GenerateHypothesis(ctx context.Context, drug, disease domain.Entity, paths []domain.PathwayPath, evidence []domain.Evidence) (string, string, error) {
	var rationale strings.Builder
	for _, p := range paths {
		rationale.WriteString("- ")
		rationale.WriteString(p.Rationale)
		rationale.WriteString("\n")
	}
	prompt := fmt.Sprintf(
		"Drug: %s\nDisease: %s\nMechanism paths:\n%s\nEvidence count: %d\n\n"+
			"Write a one-paragraph repurposing hypothesis and a one-sentence "+
			"mechanism summary. Respond with JSON only: "+
			`{"hypothesis":"...","mechanism_summary":"..."}`,
		drug.CanonicalName, disease.CanonicalName, rationale.String(), len(evidence))

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	doc, err := schema.Validate(schema.Hypothesis, raw)
	if err != nil {
		return "", "", err
	}
	hypothesis, _ := doc["hypothesis"].(string)
	mechanismSummary, _ := doc["mechanism_summary"].(string)
	return hypothesis, mechanismSummary, nil
}

// ExplainPathway produces a free-text explanation of a single mechanism
// path. The explanation is pulled
// out of the response with a gojq query rather than a plain map index, so a
// prompt revision that nests or renames the field only needs the query
// string updated.
func (s *Synthesizer) ExplainPathway(ctx context.Context, path domain.PathwayPath) (string, error) {
	prompt := fmt.Sprintf(
		"Explain this biomedical mechanism path in plain language: %s\n\n"+
			`Respond with JSON only: {"explanation":"..."}`, path.Rationale)

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	doc, err := schema.Validate(schema.Explanation, raw)
	if err != nil {
		return "", err
	}
	v, err := schema.ExtractField(doc, ".explanation")
	if err != nil {
		return "", err
	}
	explanation, _ := v.(string)
	return explanation, nil
}

func (s *Synthesizer) complete(ctx context.Context, prompt string) ([]byte, error) {
	text, err := s.completeText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, coreerrors.New(coreerrors.KindExternalContractBroken, fmt.Errorf("synthesizer response contains no JSON object"))
	}
	return []byte(text[start : end+1]), nil
}

func (s *Synthesizer) completeText(ctx context.Context, prompt string) (string, error) {
	run := func(ctx context.Context) (interface{}, error) {
		msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     s.model,
			MaxTokens: s.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return nil, err
		}
		var out strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				out.WriteString(block.Text)
			}
		}
		return out.String(), nil
	}
	var res interface{}
	var err error
	if s.breaker != nil {
		res, err = s.breaker.Do(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		return "", coreerrors.New(coreerrors.KindRepositoryUnavailable, coreerrors.FailedTo("call synthesizer", err))
	}
	return res.(string), nil
}
