package genotype

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"phylon/internal/model"
)

// FloatVector is a fixed-length continuous genome representation.
type FloatVector struct {
	Values []float64
}

func (v *FloatVector) Size() int {
	return len(v.Values)
}

func (v *FloatVector) Copy() model.Representation {
	return &FloatVector{Values: append([]float64(nil), v.Values...)}
}

// IntVector is a fixed-length discrete genome representation.
type IntVector struct {
	Values []int
}

func (v *IntVector) Size() int {
	return len(v.Values)
}

func (v *IntVector) Copy() model.Representation {
	return &IntVector{Values: append([]int(nil), v.Values...)}
}

// NewID returns a fresh genome identifier. IDs never influence evolution, so
// they do not need to come from the seeded generator.
func NewID() string {
	return uuid.NewString()
}

// NewRandomFloatVector draws each component uniformly from [low, high).
func NewRandomFloatVector(rng *rand.Rand, length int, low, high float64) *FloatVector {
	values := make([]float64, length)
	for i := range values {
		values[i] = low + rng.Float64()*(high-low)
	}
	return &FloatVector{Values: values}
}

// NewRandomIntVector draws each component uniformly from [0, bound).
func NewRandomIntVector(rng *rand.Rand, length, bound int) *IntVector {
	values := make([]int, length)
	for i := range values {
		values[i] = rng.Intn(bound)
	}
	return &IntVector{Values: values}
}

// SeedFloatPopulation fills an empty population with random float-vector
// genomes in a single bootstrap species. Speciation regroups them on the
// first generation.
func SeedFloatPopulation(pop *model.Population, rng *rand.Rand, count, length int, low, high float64) error {
	if pop == nil {
		return fmt.Errorf("population is required")
	}
	if pop.Size() > 0 {
		return fmt.Errorf("population is already seeded with %d genomes", pop.Size())
	}
	if count <= 0 {
		return fmt.Errorf("seed count must be > 0, got %d", count)
	}
	if count > pop.MaxPopulationSize {
		return fmt.Errorf("seed count %d exceeds max population size %d", count, pop.MaxPopulationSize)
	}
	if length <= 0 || length > pop.MaxIndividualSize {
		return fmt.Errorf("genome length %d must be in [1, %d]", length, pop.MaxIndividualSize)
	}
	if high <= low {
		return fmt.Errorf("invalid seed range [%f, %f)", low, high)
	}

	sp := pop.CreateSpecies()
	for i := 0; i < count; i++ {
		sp.Add(&model.Genome{
			ID:             NewID(),
			Representation: NewRandomFloatVector(rng, length, low, high),
		})
	}
	return nil
}

// FloatVectorDistance is the speciation distance for float vectors: mean
// absolute component difference.
func FloatVectorDistance(a, b model.Representation) float64 {
	av, aok := a.(*FloatVector)
	bv, bok := b.(*FloatVector)
	if !aok || !bok {
		return 0
	}
	n := len(av.Values)
	if len(bv.Values) < n {
		n = len(bv.Values)
	}
	if n == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		d := av.Values[i] - bv.Values[i]
		if d < 0 {
			d = -d
		}
		total += d
	}
	return total / float64(n)
}
