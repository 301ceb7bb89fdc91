package evo

import "phylon/internal/model"

// Comparator is a direction-aware total order over genomes. Compare returns a
// negative value when a is better than b, positive when worse, zero on ties.
type Comparator interface {
	Name() string
	Compare(a, b *model.Genome) int
	IsBetter(a, b *model.Genome) bool
}

// ScoreComparator orders genomes by raw score. Used to track the true best
// genome of a run.
type ScoreComparator struct {
	Minimize bool
}

func (ScoreComparator) Name() string {
	return "score"
}

func (c ScoreComparator) Compare(a, b *model.Genome) int {
	return compareDirected(a.Score, b.Score, c.Minimize)
}

func (c ScoreComparator) IsBetter(a, b *model.Genome) bool {
	return c.Compare(a, b) < 0
}

// AdjustedScoreComparator orders genomes by adjusted score. Used during
// selection, where bonuses and penalties apply.
type AdjustedScoreComparator struct {
	Minimize bool
}

func (AdjustedScoreComparator) Name() string {
	return "adjusted_score"
}

func (c AdjustedScoreComparator) Compare(a, b *model.Genome) int {
	return compareDirected(a.AdjustedScore, b.AdjustedScore, c.Minimize)
}

func (c AdjustedScoreComparator) IsBetter(a, b *model.Genome) bool {
	return c.Compare(a, b) < 0
}

func compareDirected(a, b float64, minimize bool) int {
	switch {
	case a == b:
		return 0
	case (a < b) == minimize:
		return -1
	default:
		return 1
	}
}
