package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"phylon/internal/model"
)

// SnapshotGeneration condenses the scored population into one diagnostics
// record. Only scored genomes contribute; an unscored population yields a
// record with just the generation number and species shape.
func SnapshotGeneration(pop *model.Population, generation int, minimize bool) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		VersionedRecord: model.NewVersionedRecord(),
		Generation:      generation,
		SpeciesCount:    len(pop.Species),
	}

	largest := 0
	for _, sp := range pop.Species {
		if len(sp.Members) > largest {
			largest = len(sp.Members)
		}
		if sp.GenerationsStagnant > 0 {
			diag.StagnantSpecies++
		}
	}
	diag.LargestSpeciesSize = largest
	if diag.SpeciesCount > 0 {
		diag.MeanSpeciesSize = float64(pop.Size()) / float64(diag.SpeciesCount)
	}

	scores := scoredValues(pop)
	if len(scores) == 0 {
		return diag
	}
	sort.Float64s(scores)
	diag.MeanScore = stat.Mean(scores, nil)
	if minimize {
		diag.BestScore = scores[0]
		diag.WorstScore = scores[len(scores)-1]
	} else {
		diag.BestScore = scores[len(scores)-1]
		diag.WorstScore = scores[0]
	}
	return diag
}

func scoredValues(pop *model.Population) []float64 {
	values := make([]float64, 0, pop.Size())
	for _, g := range pop.Genomes() {
		if g.Scored {
			values = append(values, g.Score)
		}
	}
	return values
}
