package evo

import (
	"fmt"
	"math/rand"

	"phylon/internal/genotype"
	"phylon/internal/model"
)

// cloneChild starts an offspring from a parent: fresh ID, unscored, same
// species back-reference.
func cloneChild(parent *model.Genome) *model.Genome {
	child := parent.Clone(genotype.NewID())
	child.Score = 0
	child.AdjustedScore = 0
	child.Scored = false
	return child
}

// PerturbMutation nudges every component of a float-vector genome by a
// relative amount drawn uniformly from [-Range, Range].
type PerturbMutation struct {
	Range float64
}

func (PerturbMutation) Name() string {
	return "perturb"
}

func (PerturbMutation) ParentsRequired() int {
	return 1
}

func (PerturbMutation) OffspringProduced() int {
	return 1
}

func (m PerturbMutation) Apply(rng *rand.Rand, parents []*model.Genome) ([]*model.Genome, error) {
	if len(parents) != 1 {
		return nil, fmt.Errorf("perturb wants 1 parent, got %d", len(parents))
	}
	span := m.Range
	if span <= 0 {
		span = 0.1
	}
	child := cloneChild(parents[0])
	vec, ok := child.Representation.(*genotype.FloatVector)
	if !ok {
		return nil, fmt.Errorf("perturb: unsupported representation %T", child.Representation)
	}
	for i, v := range vec.Values {
		vec.Values[i] = v + v*(rng.Float64()*2-1)*span
	}
	return []*model.Genome{child}, nil
}

// ShuffleMutation swaps two randomly chosen positions of a vector genome.
type ShuffleMutation struct{}

func (ShuffleMutation) Name() string {
	return "shuffle"
}

func (ShuffleMutation) ParentsRequired() int {
	return 1
}

func (ShuffleMutation) OffspringProduced() int {
	return 1
}

func (ShuffleMutation) Apply(rng *rand.Rand, parents []*model.Genome) ([]*model.Genome, error) {
	if len(parents) != 1 {
		return nil, fmt.Errorf("shuffle wants 1 parent, got %d", len(parents))
	}
	child := cloneChild(parents[0])
	length := child.Representation.Size()
	if length < 2 {
		return nil, fmt.Errorf("%w: cannot shuffle a genome of size %d", ErrInvalidOffspring, length)
	}
	i := rng.Intn(length)
	j := rng.Intn(length - 1)
	if j >= i {
		j++
	}

	switch vec := child.Representation.(type) {
	case *genotype.FloatVector:
		vec.Values[i], vec.Values[j] = vec.Values[j], vec.Values[i]
	case *genotype.IntVector:
		vec.Values[i], vec.Values[j] = vec.Values[j], vec.Values[i]
	default:
		return nil, fmt.Errorf("shuffle: unsupported representation %T", child.Representation)
	}
	return []*model.Genome{child}, nil
}

// SpliceCrossover cuts a segment of CutLength out of each of two parents and
// swaps it, producing two offspring.
type SpliceCrossover struct {
	CutLength int
}

func (SpliceCrossover) Name() string {
	return "splice"
}

func (SpliceCrossover) ParentsRequired() int {
	return 2
}

func (SpliceCrossover) OffspringProduced() int {
	return 2
}

func (c SpliceCrossover) Apply(rng *rand.Rand, parents []*model.Genome) ([]*model.Genome, error) {
	if len(parents) != 2 {
		return nil, fmt.Errorf("splice wants 2 parents, got %d", len(parents))
	}
	length := parents[0].Representation.Size()
	if parents[1].Representation.Size() != length {
		return nil, fmt.Errorf("%w: splice parents differ in size: %d vs %d",
			ErrInvalidOffspring, length, parents[1].Representation.Size())
	}

	cut := c.CutLength
	if cut <= 0 {
		cut = length / 3
	}
	if cut < 1 || cut >= length {
		return nil, fmt.Errorf("%w: cut length %d unusable for genome size %d", ErrInvalidOffspring, cut, length)
	}
	start := rng.Intn(length - cut + 1)
	end := start + cut

	a := cloneChild(parents[0])
	b := cloneChild(parents[1])
	switch av := a.Representation.(type) {
	case *genotype.FloatVector:
		bv, ok := b.Representation.(*genotype.FloatVector)
		if !ok {
			return nil, fmt.Errorf("splice: mixed representation types %T and %T", a.Representation, b.Representation)
		}
		for i := start; i < end; i++ {
			av.Values[i], bv.Values[i] = bv.Values[i], av.Values[i]
		}
	case *genotype.IntVector:
		bv, ok := b.Representation.(*genotype.IntVector)
		if !ok {
			return nil, fmt.Errorf("splice: mixed representation types %T and %T", a.Representation, b.Representation)
		}
		for i := start; i < end; i++ {
			av.Values[i], bv.Values[i] = bv.Values[i], av.Values[i]
		}
	default:
		return nil, fmt.Errorf("splice: unsupported representation %T", a.Representation)
	}
	return []*model.Genome{a, b}, nil
}
