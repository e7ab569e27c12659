// Package scorer implements the Scorer port (pkg/ports.Scorer) on top of
// langchaingo's OpenAI-compatible completion interface. Uses the same
// provider-switch idiom as pkg/ai/synth (pkg/ai/llm.NewClient), routed
// through a second LLM library so each gets a distinct, real role instead of
// one synthesizer adapter standing in for both.
package scorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/biomind/repurposing/internal/config"
	"github.com/biomind/repurposing/pkg/ai/schema"
	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/resilience"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// Scorer assigns confidence to a proposed relation or evidence item.
type Scorer struct {
	model   llms.Model
	breaker *resilience.Breaker
}

func New(cfg config.ScorerConfig, breaker *resilience.Breaker) (*Scorer, error) {
	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, coreerrors.FailedTo("construct scorer model", err)
	}
	return &Scorer{model: model, breaker: breaker}, nil
}

// ScoreRelation asks the model for a [0,1] confidence that subject-relation-
// object holds given the supporting evidence.
func (s *Scorer) ScoreRelation(ctx context.Context, subject, relation, object string, evidence []domain.Evidence) (float64, error) {
	var descriptions strings.Builder
	for _, e := range evidence {
		descriptions.WriteString("- ")
		descriptions.WriteString(e.Description)
		descriptions.WriteString("\n")
	}
	prompt := fmt.Sprintf(
		"Rate your confidence (0.0 to 1.0) that the relation %q holds between "+
			"%q and %q, given this evidence:\n%s\nRespond with JSON only: "+
			`{"score": 0.0}`, relation, subject, object, descriptions.String())
	return s.score(ctx, prompt)
}

// ScoreEvidence asks the model for a [0,1] relevance score of ev to
// candidate.
func (s *Scorer) ScoreEvidence(ctx context.Context, candidate domain.Candidate, ev domain.Evidence) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate how relevant (0.0 to 1.0) this evidence is to the hypothesis %q:\n%s\n"+
			`Respond with JSON only: {"score": 0.0}`, candidate.Hypothesis, ev.Description)
	return s.score(ctx, prompt)
}

func (s *Scorer) score(ctx context.Context, prompt string) (float64, error) {
	run := func(ctx context.Context) (interface{}, error) {
		return llms.GenerateFromSinglePrompt(ctx, s.model, prompt)
	}
	var res interface{}
	var err error
	if s.breaker != nil {
		res, err = s.breaker.Do(ctx, run)
	} else {
		res, err = run(ctx)
	}
	if err != nil {
		return 0, coreerrors.New(coreerrors.KindRepositoryUnavailable, coreerrors.FailedTo("call scorer", err))
	}

	text := res.(string)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return 0, coreerrors.New(coreerrors.KindExternalContractBroken, fmt.Errorf("scorer response contains no JSON object"))
	}
	doc, err := schema.Validate(schema.Score, []byte(text[start:end+1]))
	if err != nil {
		return 0, err
	}
	score, _ := doc["score"].(float64)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
