package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// RunSummary condenses the best-per-generation fitness series of one run.
type RunSummary struct {
	Generations int     `json:"generations"`
	FirstBest   float64 `json:"first_best"`
	FinalBest   float64 `json:"final_best"`
	Improvement float64 `json:"improvement"`
	MeanBest    float64 `json:"mean_best"`
	StdBest     float64 `json:"std_best"`
	MinBest     float64 `json:"min_best"`
	MaxBest     float64 `json:"max_best"`
}

// SummarizeRun builds a RunSummary from the per-generation best scores, in
// generation order. Improvement is signed toward the optimization direction,
// so it is non-negative for any run whose best genome never regresses.
func SummarizeRun(series []float64, minimize bool) (RunSummary, error) {
	if len(series) == 0 {
		return RunSummary{}, fmt.Errorf("fitness series is empty")
	}
	summary := RunSummary{
		Generations: len(series),
		FirstBest:   series[0],
		FinalBest:   series[len(series)-1],
		MeanBest:    stat.Mean(series, nil),
		MinBest:     series[0],
		MaxBest:     series[0],
	}
	if len(series) > 1 {
		summary.StdBest = stat.StdDev(series, nil)
	}
	for _, v := range series[1:] {
		if v < summary.MinBest {
			summary.MinBest = v
		}
		if v > summary.MaxBest {
			summary.MaxBest = v
		}
	}
	if minimize {
		summary.Improvement = summary.FirstBest - summary.FinalBest
	} else {
		summary.Improvement = summary.FinalBest - summary.FirstBest
	}
	return summary, nil
}
