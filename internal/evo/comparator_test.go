package evo

import (
	"testing"

	"phylon/internal/model"
)

func TestScoreComparatorDirection(t *testing.T) {
	low := &model.Genome{Score: 1, AdjustedScore: 100}
	high := &model.Genome{Score: 2, AdjustedScore: 0}

	maximize := ScoreComparator{Minimize: false}
	if !maximize.IsBetter(high, low) {
		t.Fatal("expected higher raw score to win under maximization")
	}
	if maximize.IsBetter(low, high) {
		t.Fatal("expected lower raw score to lose under maximization")
	}

	minimize := ScoreComparator{Minimize: true}
	if !minimize.IsBetter(low, high) {
		t.Fatal("expected lower raw score to win under minimization")
	}
}

func TestAdjustedScoreComparatorUsesAdjustedField(t *testing.T) {
	penalized := &model.Genome{Score: 10, AdjustedScore: 1}
	boosted := &model.Genome{Score: 5, AdjustedScore: 8}

	c := AdjustedScoreComparator{Minimize: false}
	if !c.IsBetter(boosted, penalized) {
		t.Fatal("expected selection comparator to ignore the raw score")
	}
}

func TestCompareTreatsEqualScoresAsTies(t *testing.T) {
	a := &model.Genome{Score: 3}
	b := &model.Genome{Score: 3}
	if got := (ScoreComparator{}).Compare(a, b); got != 0 {
		t.Fatalf("unexpected tie result: got=%d want=0", got)
	}
	if (ScoreComparator{}).IsBetter(a, b) {
		t.Fatal("a tie must not count as strictly better")
	}
}
