package evo

import (
	"math"

	"phylon/internal/model"
)

const defaultComplexityExponent = 0.05

// ScoreAdjuster rewrites a genome's adjusted score immediately after raw
// scoring. Adjusters run once per genome per generation, in registration
// order, with the genome's current species available as read-only context
// and the run's optimization direction. The engine does not interpret
// adjuster semantics.
type ScoreAdjuster interface {
	Name() string
	Adjust(g *model.Genome, species *model.Species, minimize bool)
}

// ComplexityPenalty worsens the adjusted score of larger genomes so that two
// genomes with equal raw score compete in favor of the simpler one.
type ComplexityPenalty struct {
	Exponent float64
}

func (ComplexityPenalty) Name() string {
	return "complexity_penalty"
}

func (a ComplexityPenalty) Adjust(g *model.Genome, _ *model.Species, minimize bool) {
	exponent := a.Exponent
	if exponent == 0 {
		exponent = defaultComplexityExponent
	}
	size := 1
	if g.Representation != nil && g.Representation.Size() > 1 {
		size = g.Representation.Size()
	}
	factor := math.Pow(float64(size), exponent)
	if minimize {
		g.AdjustedScore *= factor
	} else {
		g.AdjustedScore /= factor
	}
}

// StagnationPenalty worsens the adjusted score of genomes whose species has
// stopped improving, steering selection toward fresher species.
type StagnationPenalty struct {
	Decay float64
}

func (StagnationPenalty) Name() string {
	return "stagnation_penalty"
}

func (a StagnationPenalty) Adjust(g *model.Genome, species *model.Species, minimize bool) {
	if species == nil || species.GenerationsStagnant == 0 {
		return
	}
	decay := a.Decay
	if decay <= 0 || decay >= 1 {
		decay = 0.01
	}
	factor := math.Pow(1-decay, float64(species.GenerationsStagnant))
	if minimize {
		g.AdjustedScore /= factor
	} else {
		g.AdjustedScore *= factor
	}
}
