package pipeline

import "github.com/biomind/repurposing/pkg/ports"

// Deps bundles the external-service ports the stage handlers call through.
// Constructed once at startup (cmd/repurposing-server) and shared across
// requests; every
// port is already wrapped in its own resilience.Breaker by its adapter, so
// stages never need to know about retries or circuit state.
type Deps struct {
	NER        ports.NERExtractor
	Synth      ports.Synthesizer
	Literature ports.LiteratureClient
	Scorer     ports.Scorer
}
