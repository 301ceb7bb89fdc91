package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"phylon/internal/model"
)

// Operator produces offspring from parent genomes using the shared randomness
// source. An operator signals an unusable candidate by returning
// ErrInvalidOffspring (possibly wrapped); any other error is fatal.
type Operator interface {
	Name() string
	ParentsRequired() int
	OffspringProduced() int
	Apply(rng *rand.Rand, parents []*model.Genome) ([]*model.Genome, error)
}

type weightedOperator struct {
	operator Operator
	weight   float64
}

// operationList keeps registered operators with their relative weights and a
// cumulative-weight table so choosing an operator costs one uniform draw and
// a binary search.
type operationList struct {
	entries    []weightedOperator
	cumulative []float64
	total      float64
}

func (l *operationList) add(weight float64, op Operator) error {
	if op == nil {
		return fmt.Errorf("%w: operator is required", ErrConfiguration)
	}
	if weight <= 0 {
		return fmt.Errorf("%w: operator %s weight must be > 0, got %f", ErrConfiguration, op.Name(), weight)
	}
	if op.ParentsRequired() < 1 {
		return fmt.Errorf("%w: operator %s must require at least one parent", ErrConfiguration, op.Name())
	}
	if op.OffspringProduced() < 1 {
		return fmt.Errorf("%w: operator %s must produce at least one offspring", ErrConfiguration, op.Name())
	}

	l.entries = append(l.entries, weightedOperator{operator: op, weight: weight})
	l.rebuild()
	return nil
}

func (l *operationList) rebuild() {
	l.cumulative = make([]float64, len(l.entries))
	running := 0.0
	for i, entry := range l.entries {
		running += entry.weight
		l.cumulative[i] = running
	}
	l.total = running
}

func (l *operationList) len() int {
	return len(l.entries)
}

func (l *operationList) pick(rng *rand.Rand) Operator {
	if len(l.entries) == 1 {
		return l.entries[0].operator
	}
	draw := rng.Float64() * l.total
	idx := sort.SearchFloat64s(l.cumulative, draw)
	if idx >= len(l.entries) {
		idx = len(l.entries) - 1
	}
	return l.entries[idx].operator
}

func (l *operationList) names() []string {
	out := make([]string, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, entry.operator.Name())
	}
	return out
}
