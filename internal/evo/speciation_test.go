package evo

import (
	"testing"

	"phylon/internal/genotype"
	"phylon/internal/model"
)

func clusteredPopulation(t *testing.T, centers []float64, perCenter int) *model.Population {
	t.Helper()
	pop, err := model.NewPopulation(8, len(centers)*perCenter, 8)
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	sp := pop.CreateSpecies()
	for _, center := range centers {
		for i := 0; i < perCenter; i++ {
			sp.Add(&model.Genome{
				ID:             genotype.NewID(),
				Representation: &genotype.FloatVector{Values: []float64{center, center + float64(i)*0.001}},
				Scored:         true,
			})
		}
	}
	return pop
}

func assertPartition(t *testing.T, pop *model.Population, wantTotal int) {
	t.Helper()
	seen := map[*model.Genome]string{}
	for _, sp := range pop.Species {
		if len(sp.Members) == 0 {
			t.Fatalf("species %s kept with zero members", sp.ID)
		}
		for _, g := range sp.Members {
			if prev, dup := seen[g]; dup {
				t.Fatalf("genome %s assigned to both %s and %s", g.ID, prev, sp.ID)
			}
			seen[g] = sp.ID
			if g.SpeciesID != sp.ID {
				t.Fatalf("genome %s back-reference %s does not match %s", g.ID, g.SpeciesID, sp.ID)
			}
		}
	}
	if len(seen) != wantTotal {
		t.Fatalf("unexpected assigned genome count: got=%d want=%d", len(seen), wantTotal)
	}
}

func TestSingleSpeciationCompactsToOneSpecies(t *testing.T) {
	pop, err := model.NewPopulation(8, 10, 4)
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	a := pop.CreateSpecies()
	b := pop.CreateSpecies()
	a.Add(&model.Genome{ID: "a0"})
	b.Add(&model.Genome{ID: "b0"})
	b.Add(&model.Genome{ID: "b1"})

	if err := (SingleSpeciation{}).Speciate(pop); err != nil {
		t.Fatalf("speciate: %v", err)
	}
	if len(pop.Species) != 1 {
		t.Fatalf("expected a single species, got %d", len(pop.Species))
	}
	assertPartition(t, pop, 3)
}

func TestThresholdSpeciationConstructorValidation(t *testing.T) {
	if _, err := NewThresholdSpeciation(nil, 3); err == nil {
		t.Fatal("expected error for nil distance function")
	}
	if _, err := NewThresholdSpeciation(genotype.FloatVectorDistance, 0); err == nil {
		t.Fatal("expected error for zero target species")
	}
}

func TestThresholdSpeciationSeparatesDistantClusters(t *testing.T) {
	pop := clusteredPopulation(t, []float64{0, 10, 20}, 4)
	speciation, err := NewThresholdSpeciation(genotype.FloatVectorDistance, 3)
	if err != nil {
		t.Fatalf("new speciation: %v", err)
	}

	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate: %v", err)
	}
	if len(pop.Species) != 3 {
		t.Fatalf("expected 3 species for 3 distant clusters, got %d", len(pop.Species))
	}
	assertPartition(t, pop, 12)
}

func TestThresholdSpeciationRespectsMaxSpecies(t *testing.T) {
	pop := clusteredPopulation(t, []float64{0, 10, 20, 30, 40, 50}, 2)
	pop.MaxSpecies = 2
	speciation, err := NewThresholdSpeciation(genotype.FloatVectorDistance, 6)
	if err != nil {
		t.Fatalf("new speciation: %v", err)
	}

	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate: %v", err)
	}
	if len(pop.Species) > 2 {
		t.Fatalf("species count %d exceeds cap 2", len(pop.Species))
	}
	assertPartition(t, pop, 12)
}

func TestThresholdSpeciationEvictsStagnantSpecies(t *testing.T) {
	pop := clusteredPopulation(t, []float64{0, 10}, 3)
	speciation, err := NewThresholdSpeciation(genotype.FloatVectorDistance, 2)
	if err != nil {
		t.Fatalf("new speciation: %v", err)
	}
	speciation.StagnationLimit = 2

	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate: %v", err)
	}
	if len(pop.Species) != 2 {
		t.Fatalf("expected 2 species before eviction, got %d", len(pop.Species))
	}

	pop.Species[0].GenerationsStagnant = 5
	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate after stagnation: %v", err)
	}
	if pop.Size() != 3 {
		t.Fatalf("expected stagnant members to be evicted, population size %d", pop.Size())
	}
	assertPartition(t, pop, 3)
}

func TestThresholdSpeciationSurvivesWhenAllSpeciesStagnate(t *testing.T) {
	pop := clusteredPopulation(t, []float64{0, 10}, 3)
	speciation, err := NewThresholdSpeciation(genotype.FloatVectorDistance, 2)
	if err != nil {
		t.Fatalf("new speciation: %v", err)
	}
	speciation.StagnationLimit = 1

	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate: %v", err)
	}
	if len(pop.Species) != 2 {
		t.Fatalf("expected 2 species before eviction, got %d", len(pop.Species))
	}

	pop.Species[0].GenerationsStagnant = 9
	pop.Species[1].GenerationsStagnant = 4
	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate all stagnant: %v", err)
	}
	if len(pop.Species) == 0 || pop.Size() == 0 {
		t.Fatalf("all species evicted: species=%d size=%d", len(pop.Species), pop.Size())
	}
	if pop.Size() != 3 {
		t.Fatalf("expected only the least stagnant species to survive, population size %d", pop.Size())
	}
	assertPartition(t, pop, 3)
}

func TestThresholdSpeciationKeepsLastSpeciesAlive(t *testing.T) {
	pop := clusteredPopulation(t, []float64{0}, 4)
	speciation, err := NewThresholdSpeciation(genotype.FloatVectorDistance, 1)
	if err != nil {
		t.Fatalf("new speciation: %v", err)
	}
	speciation.StagnationLimit = 1

	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate: %v", err)
	}
	pop.Species[0].GenerationsStagnant = 10
	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate stagnant: %v", err)
	}
	if pop.Size() != 4 {
		t.Fatalf("sole species must survive stagnation, population size %d", pop.Size())
	}
}

func TestThresholdSpeciationAdaptsThresholdTowardTarget(t *testing.T) {
	pop := clusteredPopulation(t, []float64{0}, 6)
	speciation, err := NewThresholdSpeciation(genotype.FloatVectorDistance, 4)
	if err != nil {
		t.Fatalf("new speciation: %v", err)
	}

	before := speciation.Threshold()
	if err := speciation.Speciate(pop); err != nil {
		t.Fatalf("speciate: %v", err)
	}
	// one tight cluster cannot reach the target of 4, so the threshold drops
	if speciation.Threshold() >= before {
		t.Fatalf("expected threshold to shrink below species target: %f -> %f", before, speciation.Threshold())
	}
}
