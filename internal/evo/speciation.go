package evo

import (
	"fmt"
	"math"

	"phylon/internal/model"
)

// Speciation regroups the whole population into species after each
// generation's offspring are inserted. Implementations must leave every
// surviving genome in exactly one species, must not grow the population, and
// may evict empty or stagnant species.
type Speciation interface {
	Name() string
	Speciate(pop *model.Population) error
}

// SingleSpeciation keeps the entire population in one species. It performs no
// regrouping beyond compacting everything into the first species, which makes
// it both the trivial production choice for unspeciated problems and the
// contract double used in tests.
type SingleSpeciation struct{}

func (SingleSpeciation) Name() string {
	return "single"
}

func (SingleSpeciation) Speciate(pop *model.Population) error {
	if pop == nil {
		return fmt.Errorf("%w: population is required", ErrConfiguration)
	}
	genomes := pop.Genomes()

	var home *model.Species
	if len(pop.Species) > 0 {
		home = pop.Species[0]
	} else {
		home = pop.CreateSpecies()
	}
	home.Members = home.Members[:0]
	pop.Species = pop.Species[:1]
	pop.Species[0] = home
	for _, g := range genomes {
		home.Add(g)
	}
	return nil
}

// DistanceFunc measures similarity between two genome representations. Lower
// means more alike.
type DistanceFunc func(a, b model.Representation) float64

// ThresholdSpeciation clusters genomes around per-species representatives: a
// genome joins the nearest species within the compatibility threshold, or
// founds a new one while the species cap allows it. The threshold is nudged
// after every generation toward a target species count. Species that stay
// stagnant beyond StagnationLimit generations are evicted together with
// their members, as long as at least one species survives.
type ThresholdSpeciation struct {
	Distance        DistanceFunc
	TargetSpecies   int
	StagnationLimit int

	threshold    float64
	minThreshold float64
	maxThreshold float64
	adjustStep   float64

	representatives map[string]model.Representation
}

func NewThresholdSpeciation(distance DistanceFunc, targetSpecies int) (*ThresholdSpeciation, error) {
	if distance == nil {
		return nil, fmt.Errorf("%w: distance function is required", ErrConfiguration)
	}
	if targetSpecies < 1 {
		return nil, fmt.Errorf("%w: target species count must be >= 1, got %d", ErrConfiguration, targetSpecies)
	}
	return &ThresholdSpeciation{
		Distance:        distance,
		TargetSpecies:   targetSpecies,
		threshold:       1.0,
		minThreshold:    0.05,
		maxThreshold:    8.0,
		adjustStep:      0.1,
		representatives: map[string]model.Representation{},
	}, nil
}

func (s *ThresholdSpeciation) Name() string {
	return "threshold"
}

func (s *ThresholdSpeciation) Threshold() float64 {
	return s.threshold
}

func (s *ThresholdSpeciation) Speciate(pop *model.Population) error {
	if pop == nil {
		return fmt.Errorf("%w: population is required", ErrConfiguration)
	}

	survivors := make([]*model.Species, 0, len(pop.Species))
	pool := make([]*model.Genome, 0, pop.Size())
	keeper := s.stagnationKeeper(pop)
	for i, sp := range pop.Species {
		evict := s.StagnationLimit > 0 &&
			sp.GenerationsStagnant > s.StagnationLimit &&
			i != keeper
		if evict {
			delete(s.representatives, sp.ID)
			continue
		}
		survivors = append(survivors, sp)
		if len(sp.Members) > 0 && sp.Members[0].Representation != nil {
			s.representatives[sp.ID] = sp.Members[0].Representation.Copy()
		}
		pool = append(pool, sp.Members...)
		sp.Members = sp.Members[:0]
	}
	pop.Species = survivors

	for _, g := range pool {
		home := s.placeGenome(pop, g)
		home.Add(g)
	}

	// Drop species that attracted no members this generation.
	kept := pop.Species[:0]
	for _, sp := range pop.Species {
		if len(sp.Members) == 0 {
			delete(s.representatives, sp.ID)
			continue
		}
		kept = append(kept, sp)
	}
	pop.Species = kept

	if len(pop.Species) > s.TargetSpecies {
		s.threshold = math.Min(s.maxThreshold, s.threshold+s.adjustStep)
	} else if len(pop.Species) < s.TargetSpecies {
		s.threshold = math.Max(s.minThreshold, s.threshold-s.adjustStep)
	}
	return nil
}

// stagnationKeeper picks the species exempted from stagnation eviction when
// every species is past the limit, so the population is never emptied. It
// returns the index of the least stagnant species, or -1 when at least one
// species survives on its own.
func (s *ThresholdSpeciation) stagnationKeeper(pop *model.Population) int {
	if s.StagnationLimit <= 0 || len(pop.Species) == 0 {
		return -1
	}
	keeper := 0
	for i, sp := range pop.Species {
		if sp.GenerationsStagnant <= s.StagnationLimit {
			return -1
		}
		if sp.GenerationsStagnant < pop.Species[keeper].GenerationsStagnant {
			keeper = i
		}
	}
	return keeper
}

func (s *ThresholdSpeciation) placeGenome(pop *model.Population, g *model.Genome) *model.Species {
	var nearest *model.Species
	nearestDistance := math.MaxFloat64
	for _, sp := range pop.Species {
		rep, ok := s.representatives[sp.ID]
		if !ok {
			continue
		}
		d := s.Distance(g.Representation, rep)
		if d < nearestDistance {
			nearestDistance = d
			nearest = sp
		}
	}

	if nearest != nil && nearestDistance <= s.threshold {
		return nearest
	}

	limit := s.TargetSpecies
	if pop.MaxSpecies < limit {
		limit = pop.MaxSpecies
	}
	if len(pop.Species) < limit || nearest == nil {
		sp := pop.CreateSpecies()
		if g.Representation != nil {
			s.representatives[sp.ID] = g.Representation.Copy()
		}
		return sp
	}
	return nearest
}
