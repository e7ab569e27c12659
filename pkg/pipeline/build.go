package pipeline

import "github.com/sirupsen/logrus"

// Default builds the standard six-stage pipeline in spec order.
func Default(deps *Deps, logger *logrus.Logger) *Pipeline {
	return New(logger,
		NewEntityExtractionStage(deps),
		NewLiteratureStage(deps),
		NewPathwaySimulationStage(),
		NewReasoningStage(deps),
		NewRankingStage(),
		NewSafetyStage(),
	)
}
