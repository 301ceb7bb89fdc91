package evo

import (
	"math"
	"testing"

	"phylon/internal/genotype"
	"phylon/internal/model"
)

type addAdjuster struct {
	amount float64
}

func (addAdjuster) Name() string { return "add" }

func (a addAdjuster) Adjust(g *model.Genome, _ *model.Species, _ bool) {
	g.AdjustedScore += a.amount
}

type scaleAdjuster struct {
	factor float64
}

func (scaleAdjuster) Name() string { return "scale" }

func (a scaleAdjuster) Adjust(g *model.Genome, _ *model.Species, _ bool) {
	g.AdjustedScore *= a.factor
}

func TestAdjusterPipelineRunsInRegistrationOrder(t *testing.T) {
	// add then scale: (3 + 1) * 2 = 8; scale then add: 3*2 + 1 = 7.
	cases := []struct {
		name      string
		adjusters []ScoreAdjuster
		want      float64
	}{
		{"add then scale", []ScoreAdjuster{addAdjuster{amount: 1}, scaleAdjuster{factor: 2}}, 8},
		{"scale then add", []ScoreAdjuster{scaleAdjuster{factor: 2}, addAdjuster{amount: 1}}, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newSumEngine(t, 10, 3)
			for _, adjuster := range tc.adjusters {
				if err := engine.AddScoreAdjuster(adjuster); err != nil {
					t.Fatalf("add score adjuster: %v", err)
				}
			}
			g := newFloatGenome("g", 1, 1, 1) // raw sum score 3
			if err := engine.CalculateScore(g); err != nil {
				t.Fatalf("calculate score: %v", err)
			}
			if g.Score != 3 {
				t.Fatalf("unexpected raw score: got=%f want=3", g.Score)
			}
			if g.AdjustedScore != tc.want {
				t.Fatalf("unexpected adjusted score: got=%f want=%f", g.AdjustedScore, tc.want)
			}
		})
	}
}

func TestAdjusterPipelineStartsFromRawScoreEachPass(t *testing.T) {
	engine := newSumEngine(t, 10, 3)
	if err := engine.AddScoreAdjuster(scaleAdjuster{factor: 2}); err != nil {
		t.Fatalf("add score adjuster: %v", err)
	}
	g := newFloatGenome("g", 2, 2) // raw 4

	for pass := 0; pass < 3; pass++ {
		if err := engine.CalculateScore(g); err != nil {
			t.Fatalf("calculate score: %v", err)
		}
		if g.AdjustedScore != 8 {
			t.Fatalf("pass %d: adjusted score compounded: got=%f want=8", pass, g.AdjustedScore)
		}
	}
}

func TestComplexityPenaltyFavorsSmallerGenomes(t *testing.T) {
	small := &model.Genome{
		Representation: &genotype.FloatVector{Values: make([]float64, 2)},
		Score:          1, AdjustedScore: 1,
	}
	large := &model.Genome{
		Representation: &genotype.FloatVector{Values: make([]float64, 40)},
		Score:          1, AdjustedScore: 1,
	}

	penalty := ComplexityPenalty{}
	penalty.Adjust(small, nil, false)
	penalty.Adjust(large, nil, false)

	wantSmall := 1 / math.Pow(2, defaultComplexityExponent)
	if math.Abs(small.AdjustedScore-wantSmall) > 1e-12 {
		t.Fatalf("unexpected small penalty: got=%f want=%f", small.AdjustedScore, wantSmall)
	}
	if large.AdjustedScore >= small.AdjustedScore {
		t.Fatalf("expected larger genome to be penalized harder: small=%f large=%f",
			small.AdjustedScore, large.AdjustedScore)
	}
}

func TestComplexityPenaltyWorsensScoreUnderMinimization(t *testing.T) {
	small := &model.Genome{
		Representation: &genotype.FloatVector{Values: make([]float64, 2)},
		Score:          1, AdjustedScore: 1,
	}
	large := &model.Genome{
		Representation: &genotype.FloatVector{Values: make([]float64, 40)},
		Score:          1, AdjustedScore: 1,
	}

	penalty := ComplexityPenalty{}
	penalty.Adjust(small, nil, true)
	penalty.Adjust(large, nil, true)

	compare := AdjustedScoreComparator{Minimize: true}
	if !compare.IsBetter(small, large) {
		t.Fatalf("smaller genome must stay preferred when minimizing: small=%f large=%f",
			small.AdjustedScore, large.AdjustedScore)
	}
	if small.AdjustedScore <= 1 || large.AdjustedScore <= 1 {
		t.Fatalf("penalty must worsen minimized scores: small=%f large=%f",
			small.AdjustedScore, large.AdjustedScore)
	}
}

func TestStagnationPenaltyDecaysWithStagnantGenerations(t *testing.T) {
	sp := &model.Species{ID: "sp-0001", GenerationsStagnant: 2}
	g := &model.Genome{Score: 1, AdjustedScore: 1, SpeciesID: sp.ID}

	StagnationPenalty{Decay: 0.5}.Adjust(g, sp, false)
	if math.Abs(g.AdjustedScore-0.25) > 1e-12 {
		t.Fatalf("unexpected decayed score: got=%f want=0.25", g.AdjustedScore)
	}

	fresh := &model.Genome{Score: 1, AdjustedScore: 1}
	StagnationPenalty{Decay: 0.5}.Adjust(fresh, &model.Species{}, false)
	if fresh.AdjustedScore != 1 {
		t.Fatalf("expected no decay for a non-stagnant species, got %f", fresh.AdjustedScore)
	}

	orphan := &model.Genome{Score: 1, AdjustedScore: 1}
	StagnationPenalty{}.Adjust(orphan, nil, false)
	if orphan.AdjustedScore != 1 {
		t.Fatalf("expected no decay without species context, got %f", orphan.AdjustedScore)
	}
}

func TestStagnationPenaltyWorsensScoreUnderMinimization(t *testing.T) {
	stale := &model.Species{ID: "sp-0001", GenerationsStagnant: 10}
	stagnant := &model.Genome{Score: 10, AdjustedScore: 10, SpeciesID: stale.ID}
	fresh := &model.Genome{Score: 10, AdjustedScore: 10}

	penalty := StagnationPenalty{Decay: 0.2}
	penalty.Adjust(stagnant, stale, true)
	penalty.Adjust(fresh, &model.Species{}, true)

	compare := AdjustedScoreComparator{Minimize: true}
	if !compare.IsBetter(fresh, stagnant) {
		t.Fatalf("fresh species must outrank a stagnant one when minimizing: fresh=%f stagnant=%f",
			fresh.AdjustedScore, stagnant.AdjustedScore)
	}
	if stagnant.AdjustedScore <= 10 {
		t.Fatalf("stagnation must worsen minimized scores, got %f", stagnant.AdjustedScore)
	}
}
