package evo

import (
	"fmt"
	"math/rand"

	"phylon/internal/model"
)

// Selector returns the index of one member genome from a species. Selection
// is read-only over the species and consumes randomness only from the given
// generator, so runs stay reproducible under a fixed seed.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, species *model.Species, compare Comparator) (int, error)
}

// TournamentSelector draws a uniformly random champion and then lets it
// defend against one uniformly random challenger per round, keeping whichever
// is strictly better under the selection comparator. More rounds mean more
// selection pressure.
type TournamentSelector struct {
	rounds int
}

func NewTournamentSelector(rounds int) (*TournamentSelector, error) {
	if rounds < 1 {
		return nil, fmt.Errorf("%w: tournament rounds must be >= 1, got %d", ErrConfiguration, rounds)
	}
	return &TournamentSelector{rounds: rounds}, nil
}

func (s *TournamentSelector) Name() string {
	return "tournament"
}

func (s *TournamentSelector) Rounds() int {
	return s.rounds
}

func (s *TournamentSelector) Select(rng *rand.Rand, species *model.Species, compare Comparator) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("%w: random source is required", ErrConfiguration)
	}
	if compare == nil {
		return 0, fmt.Errorf("%w: selection comparator is required", ErrConfiguration)
	}
	if species == nil || len(species.Members) == 0 {
		return 0, fmt.Errorf("%w: cannot select from an empty species", ErrConfiguration)
	}

	members := species.Members
	champion := rng.Intn(len(members))
	for round := 0; round < s.rounds; round++ {
		challenger := rng.Intn(len(members))
		if compare.IsBetter(members[challenger], members[champion]) {
			champion = challenger
		}
	}
	return champion, nil
}
