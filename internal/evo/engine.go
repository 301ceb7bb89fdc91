package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"phylon/internal/codec"
	"phylon/internal/genotype"
	"phylon/internal/model"
	"phylon/internal/score"
)

// Validator inspects a freshly produced genome in validation mode. A non-nil
// error rejects the genome and the offspring slot retries under the same
// maxTries budget.
type Validator interface {
	Name() string
	Validate(g *model.Genome) error
}

// Config wires one training run. Population and Score are required;
// everything else has a working default.
type Config struct {
	Population *model.Population
	Score      score.Function
	Codec      codec.Codec
	Selector   Selector
	Speciation Speciation

	Seed             int64
	MaxTries         int
	EliteCount       int
	Workers          int
	IgnoreExceptions bool
	ValidationMode   bool
	Validators       []Validator
}

const (
	defaultMaxTries         = 5
	defaultTournamentRounds = 3
	defaultEliteCount       = 1
)

// Engine drives a population through generations of selection, variation,
// scoring, adjustment, and speciation. It is not safe for concurrent use:
// one generation at a time, on one goroutine. Accessors are safe to call
// between generations.
type Engine struct {
	pop        *model.Population
	score      score.Function
	codec      codec.Codec
	selector   Selector
	speciation Speciation

	operations operationList
	adjusters  []ScoreAdjuster
	validators []Validator

	bestCompare      Comparator
	selectionCompare Comparator
	minimize         bool

	rng              *rand.Rand
	iteration        int
	best             *model.Genome
	maxTries         int
	eliteCount       int
	workers          int
	ignoreExceptions bool
	validationMode   bool
	started          bool
	finished         bool
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Population == nil {
		return nil, fmt.Errorf("%w: population is required", ErrConfiguration)
	}
	if cfg.Population.MaxPopulationSize <= 0 || cfg.Population.MaxIndividualSize <= 0 || cfg.Population.MaxSpecies <= 0 {
		return nil, fmt.Errorf("%w: population limits must be positive", ErrConfiguration)
	}
	if cfg.Score == nil {
		return nil, fmt.Errorf("%w: score function is required", ErrConfiguration)
	}
	if cfg.MaxTries < 0 {
		return nil, fmt.Errorf("%w: max tries must be >= 0, got %d", ErrConfiguration, cfg.MaxTries)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.Population.MaxPopulationSize {
		return nil, fmt.Errorf("%w: elite count must be in [0, max population size]", ErrConfiguration)
	}

	e := &Engine{
		pop:              cfg.Population,
		score:            cfg.Score,
		codec:            cfg.Codec,
		selector:         cfg.Selector,
		speciation:       cfg.Speciation,
		validators:       append([]Validator(nil), cfg.Validators...),
		rng:              rand.New(rand.NewSource(cfg.Seed)),
		maxTries:         cfg.MaxTries,
		eliteCount:       cfg.EliteCount,
		workers:          cfg.Workers,
		ignoreExceptions: cfg.IgnoreExceptions,
		validationMode:   cfg.ValidationMode,
	}
	if e.codec == nil {
		e.codec = codec.Identity{}
	}
	if e.selector == nil {
		selector, err := NewTournamentSelector(defaultTournamentRounds)
		if err != nil {
			return nil, err
		}
		e.selector = selector
	}
	if e.speciation == nil {
		e.speciation = SingleSpeciation{}
	}
	if e.maxTries == 0 {
		e.maxTries = defaultMaxTries
	}
	if e.eliteCount == 0 {
		e.eliteCount = defaultEliteCount
	}
	if e.workers <= 0 {
		e.workers = 1
	}

	e.minimize = cfg.Score.ShouldMinimize()
	e.bestCompare = ScoreComparator{Minimize: e.minimize}
	e.selectionCompare = AdjustedScoreComparator{Minimize: e.minimize}
	return e, nil
}

// AddOperation registers a variation operator with a relative selection
// weight. Weights need not sum to one.
func (e *Engine) AddOperation(probability float64, op Operator) error {
	return e.operations.add(probability, op)
}

// AddScoreAdjuster appends to the adjustment pipeline. Order matters.
func (e *Engine) AddScoreAdjuster(adjuster ScoreAdjuster) error {
	if adjuster == nil {
		return fmt.Errorf("%w: score adjuster is required", ErrConfiguration)
	}
	e.adjusters = append(e.adjusters, adjuster)
	return nil
}

// CalculateScore runs the score function once for a genome and then the full
// adjuster pipeline, with the genome's current species as context.
func (e *Engine) CalculateScore(g *model.Genome) error {
	phenotype, err := e.codec.Decode(g.Representation)
	if err != nil {
		return fmt.Errorf("%w: decode genome %s: %v", ErrTrainingFailure, g.ID, err)
	}
	raw, err := e.score.CalculateScore(phenotype)
	if err != nil {
		return fmt.Errorf("%w: score genome %s: %v", ErrTrainingFailure, g.ID, err)
	}
	g.Score = raw
	g.AdjustedScore = raw
	g.Scored = true

	species, _ := e.pop.SpeciesByID(g.SpeciesID)
	for _, adjuster := range e.adjusters {
		adjuster.Adjust(g, species, e.minimize)
	}
	return nil
}

// Iterate performs exactly one generation. On any fatal error the population
// is left in its last fully committed state.
func (e *Engine) Iterate(ctx context.Context) error {
	if e.finished {
		return ErrTrainingFinished
	}
	if e.pop.Size() == 0 {
		return ErrPopulationNotSeeded
	}
	if e.operations.len() == 0 {
		return fmt.Errorf("%w: at least one evolutionary operator is required", ErrConfiguration)
	}

	if !e.started {
		// Bootstrap scoring mutates seeded genomes in place, so a partial
		// failure rolls them back to their unscored seeded state.
		if err := e.scoreAll(ctx, e.pop.Genomes()); err != nil {
			for _, g := range e.pop.Genomes() {
				g.Score = 0
				g.AdjustedScore = 0
				g.Scored = false
			}
			return err
		}
		e.updateSpeciesStats()
		e.recomputeBest()
		e.started = true
	}

	target := e.pop.MaxPopulationSize
	offspring := make([]*model.Genome, 0, target)

	// The previous best passes through unchanged, which keeps the recorded
	// best monotone even when speciation evicts its species.
	for i := 0; i < e.eliteCount && e.best != nil && len(offspring) < target; i++ {
		offspring = append(offspring, e.best.Clone(e.best.ID))
	}

	for len(offspring) < target {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrTrainingFailure, err)
		}
		children, err := e.produceOffspring(e.operations.pick(e.rng))
		if err != nil {
			return err
		}
		for _, child := range children {
			if len(offspring) >= target {
				break
			}
			offspring = append(offspring, child)
		}
	}

	if err := e.scoreAll(ctx, offspring); err != nil {
		return err
	}

	snapshot := e.snapshotSpecies()
	e.insertOffspring(offspring)
	if err := e.speciation.Speciate(e.pop); err != nil {
		e.restoreSpecies(snapshot)
		return fmt.Errorf("%w: speciation: %v", ErrTrainingFailure, err)
	}
	e.updateSpeciesStats()
	e.recomputeBest()
	e.iteration++
	return nil
}

// FinishTraining ends the run. Iterate fails afterwards.
func (e *Engine) FinishTraining() {
	e.finished = true
}

func (e *Engine) Iteration() int { return e.iteration }

func (e *Engine) BestGenome() *model.Genome { return e.best }

func (e *Engine) Population() *model.Population { return e.pop }

func (e *Engine) ScoreFunction() score.Function { return e.score }

func (e *Engine) Codec() codec.Codec { return e.codec }

func (e *Engine) Selector() Selector { return e.selector }

func (e *Engine) Speciation() Speciation { return e.speciation }

func (e *Engine) MaxTries() int { return e.maxTries }

func (e *Engine) ShouldIgnoreExceptions() bool { return e.ignoreExceptions }

func (e *Engine) ValidationMode() bool { return e.validationMode }

func (e *Engine) BestComparator() Comparator { return e.bestCompare }

func (e *Engine) SelectionComparator() Comparator { return e.selectionCompare }

func (e *Engine) Operators() []string { return e.operations.names() }
func (e *Engine) ScoreAdjusters() []ScoreAdjuster {
	return append([]ScoreAdjuster(nil), e.adjusters...)
}

// SetBestComparator replaces the true-best order. Never call mid-generation.
func (e *Engine) SetBestComparator(c Comparator) error {
	if c == nil {
		return fmt.Errorf("%w: comparator is required", ErrConfiguration)
	}
	e.bestCompare = c
	return nil
}

// SetSelectionComparator replaces the selection order. Never call
// mid-generation.
func (e *Engine) SetSelectionComparator(c Comparator) error {
	if c == nil {
		return fmt.Errorf("%w: comparator is required", ErrConfiguration)
	}
	e.selectionCompare = c
	return nil
}

func (e *Engine) AddValidator(v Validator) error {
	if v == nil {
		return fmt.Errorf("%w: validator is required", ErrConfiguration)
	}
	e.validators = append(e.validators, v)
	return nil
}

// produceOffspring fills one offspring slot: pick a species weighted by its
// size, select parents by tournament, and apply the operator under the retry
// budget.
func (e *Engine) produceOffspring(op Operator) ([]*model.Genome, error) {
	sp := e.pickSpecies()
	parents := make([]*model.Genome, op.ParentsRequired())
	for i := range parents {
		idx, err := e.selector.Select(e.rng, sp, e.selectionCompare)
		if err != nil {
			return nil, fmt.Errorf("%w: select parent: %v", ErrTrainingFailure, err)
		}
		parents[i] = sp.Members[idx]
	}

	for attempt := 0; attempt < e.maxTries; attempt++ {
		children, err := op.Apply(e.rng, parents)
		if err != nil {
			if errors.Is(err, ErrInvalidOffspring) {
				continue
			}
			return nil, fmt.Errorf("%w: operator %s: %v", ErrTrainingFailure, op.Name(), err)
		}
		if !e.acceptOffspring(children) {
			continue
		}
		for _, child := range children {
			if child.SpeciesID == "" {
				child.SpeciesID = parents[0].SpeciesID
			}
		}
		return children, nil
	}

	if e.ignoreExceptions {
		return []*model.Genome{parents[0].Clone(genotype.NewID())}, nil
	}
	return nil, fmt.Errorf("%w: operator %s produced no valid offspring in %d tries",
		ErrTrainingFailure, op.Name(), e.maxTries)
}

func (e *Engine) acceptOffspring(children []*model.Genome) bool {
	if len(children) == 0 {
		return false
	}
	for _, child := range children {
		if child == nil || child.Representation == nil {
			return false
		}
		if child.Representation.Size() > e.pop.MaxIndividualSize {
			return false
		}
		if e.validationMode {
			for _, v := range e.validators {
				if err := v.Validate(child); err != nil {
					return false
				}
			}
		}
	}
	return true
}

// pickSpecies draws one genome uniformly and returns its species, so species
// are weighted by member count.
func (e *Engine) pickSpecies() *model.Species {
	k := e.rng.Intn(e.pop.Size())
	for _, sp := range e.pop.Species {
		if k < len(sp.Members) {
			return sp
		}
		k -= len(sp.Members)
	}
	return e.pop.Species[len(e.pop.Species)-1]
}

// scoreAll scores and adjusts every unscored genome. Distinct genomes are
// independent, so scoring fans out over a worker pool; everything is done
// before the caller moves on to speciation.
func (e *Engine) scoreAll(ctx context.Context, genomes []*model.Genome) error {
	pending := make([]*model.Genome, 0, len(genomes))
	for _, g := range genomes {
		if !g.Scored {
			pending = append(pending, g)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	workers := e.workers
	if workers > len(pending) {
		workers = len(pending)
	}
	if workers <= 1 {
		for _, g := range pending {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrTrainingFailure, err)
			}
			if err := e.CalculateScore(g); err != nil {
				return err
			}
		}
		return nil
	}

	jobs := make(chan *model.Genome)
	results := make(chan error, len(pending))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for g := range jobs {
				if err := ctx.Err(); err != nil {
					results <- fmt.Errorf("%w: %v", ErrTrainingFailure, err)
					continue
				}
				results <- e.CalculateScore(g)
			}
		}()
	}
	for _, g := range pending {
		jobs <- g
	}
	close(jobs)
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}

type speciesSnapshot struct {
	species []*model.Species
	members [][]*model.Genome
}

func (e *Engine) snapshotSpecies() speciesSnapshot {
	snap := speciesSnapshot{
		species: append([]*model.Species(nil), e.pop.Species...),
		members: make([][]*model.Genome, len(e.pop.Species)),
	}
	for i, sp := range e.pop.Species {
		snap.members[i] = append([]*model.Genome(nil), sp.Members...)
	}
	return snap
}

func (e *Engine) restoreSpecies(snap speciesSnapshot) {
	e.pop.Species = snap.species
	for i, sp := range snap.species {
		sp.Members = snap.members[i]
	}
}

// insertOffspring replaces the previous generation's members with the new
// offspring, keeping each child in the species its parent came from until
// speciation regroups.
func (e *Engine) insertOffspring(offspring []*model.Genome) {
	for _, sp := range e.pop.Species {
		sp.Members = sp.Members[:0]
	}
	for _, child := range offspring {
		sp, ok := e.pop.SpeciesByID(child.SpeciesID)
		if !ok {
			if len(e.pop.Species) == 0 {
				sp = e.pop.CreateSpecies()
			} else {
				sp = e.pop.Species[0]
			}
		}
		sp.Add(child)
	}
}

func (e *Engine) updateSpeciesStats() {
	for _, sp := range e.pop.Species {
		if len(sp.Members) == 0 {
			continue
		}
		best := sp.Members[0]
		for _, g := range sp.Members[1:] {
			if e.bestCompare.IsBetter(g, best) {
				best = g
			}
		}
		improved := !sp.BestScoreSet ||
			e.bestCompare.IsBetter(best, &model.Genome{Score: sp.BestScore})
		if improved {
			sp.BestScore = best.Score
			sp.BestScoreSet = true
			sp.GenerationsStagnant = 0
		} else {
			sp.GenerationsStagnant++
		}
	}
}

// recomputeBest scans the population in species order with strict-better
// replacement, so ties keep the first genome encountered. The previous best
// is retained when nothing beats it.
func (e *Engine) recomputeBest() {
	var candidate *model.Genome
	for _, sp := range e.pop.Species {
		for _, g := range sp.Members {
			if !g.Scored {
				continue
			}
			if candidate == nil || e.bestCompare.IsBetter(g, candidate) {
				candidate = g
			}
		}
	}
	if candidate == nil {
		return
	}
	if e.best == nil || e.bestCompare.IsBetter(candidate, e.best) {
		e.best = candidate
	}
}
