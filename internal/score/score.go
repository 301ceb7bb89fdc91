package score

import (
	"errors"
	"fmt"
	"math"
)

// Function computes a genome's raw score from its decoded phenotype. The
// direction is fixed for the lifetime of a training run.
type Function interface {
	Name() string
	CalculateScore(phenotype any) (float64, error)
	ShouldMinimize() bool
}

var ErrPhenotypeMismatch = errors.New("phenotype has unexpected type")

// Sphere scores a float vector phenotype with the sum of squared components.
// The global minimum is the zero vector.
type Sphere struct{}

func (Sphere) Name() string {
	return "sphere"
}

func (Sphere) ShouldMinimize() bool {
	return true
}

func (Sphere) CalculateScore(phenotype any) (float64, error) {
	values, ok := phenotype.([]float64)
	if !ok {
		return 0, fmt.Errorf("%w: sphere wants []float64, got %T", ErrPhenotypeMismatch, phenotype)
	}
	total := 0.0
	for _, v := range values {
		total += v * v
	}
	return total, nil
}

// Regressor is the phenotype contract for supervised regression scoring.
type Regressor interface {
	Compute(input []float64) []float64
}

// Observation is one supervised training pair.
type Observation struct {
	Input []float64
	Ideal []float64
}

// SumSquaredError scores a Regressor phenotype against an in-memory dataset.
type SumSquaredError struct {
	Data []Observation
}

func (SumSquaredError) Name() string {
	return "sse"
}

func (SumSquaredError) ShouldMinimize() bool {
	return true
}

func (f SumSquaredError) CalculateScore(phenotype any) (float64, error) {
	regressor, ok := phenotype.(Regressor)
	if !ok {
		return 0, fmt.Errorf("%w: sse wants a Regressor, got %T", ErrPhenotypeMismatch, phenotype)
	}
	if len(f.Data) == 0 {
		return 0, errors.New("sse score function has no observations")
	}

	total := 0.0
	for _, obs := range f.Data {
		actual := regressor.Compute(obs.Input)
		if len(actual) != len(obs.Ideal) {
			return 0, fmt.Errorf("regressor output width %d does not match ideal width %d", len(actual), len(obs.Ideal))
		}
		for i := range actual {
			delta := actual[i] - obs.Ideal[i]
			total += delta * delta
		}
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, errors.New("sse produced a non-finite score")
	}
	return total, nil
}
