package phylon

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"phylon/internal/codec"
	"phylon/internal/evo"
	"phylon/internal/genotype"
	"phylon/internal/model"
	"phylon/internal/score"
	"phylon/internal/stats"
	"phylon/internal/storage"
)

const defaultDBPath = "phylon.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

type RunRequest struct {
	Problem          string
	Dimensions       int
	Population       int
	Generations      int
	Seed             int64
	Workers          int
	TournamentRounds int
	MaxTries         int
	EliteCount       int
	IgnoreExceptions bool
	Speciation       string
	TargetSpecies    int
	StagnationLimit  int
	PerturbRange     float64
	SpliceCut        int
	WeightPerturb    float64
	WeightShuffle    float64
	WeightSplice     float64
	Adjusters        []string
}

type RunSummary struct {
	RunID            string
	Problem          string
	Minimize         bool
	BestByGeneration []float64
	FinalBest        float64
	Stats            stats.RunSummary
}

type SweepRequest struct {
	Genomes int
	Trials  int
	Rounds  []int
	Seed    int64
}

type SweepPoint struct {
	Rounds       int
	AverageIndex float64
}

var builtinsOnce sync.Once

// ensureBuiltins publishes the stock adjusters and operator factories, so
// runs can be wired entirely from names in a request or config file.
func ensureBuiltins() {
	builtinsOnce.Do(func() {
		_ = evo.RegisterAdjuster("complexity_penalty", evo.ComplexityPenalty{})
		_ = evo.RegisterAdjuster("stagnation_penalty", evo.StagnationPenalty{})
		_ = evo.RegisterOperatorFactory("perturb", func(params map[string]float64) (evo.Operator, error) {
			return evo.PerturbMutation{Range: params["range"]}, nil
		})
		_ = evo.RegisterOperatorFactory("shuffle", func(_ map[string]float64) (evo.Operator, error) {
			return evo.ShuffleMutation{}, nil
		})
		_ = evo.RegisterOperatorFactory("splice", func(params map[string]float64) (evo.Operator, error) {
			return evo.SpliceCrossover{CutLength: int(params["cut"])}, nil
		})
	})
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	ensureBuiltins()
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Problem == "" {
		req.Problem = "sphere"
	}
	if req.Dimensions <= 0 {
		req.Dimensions = 10
	}
	if req.Population <= 0 {
		req.Population = 50
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.TournamentRounds <= 0 {
		req.TournamentRounds = 3
	}
	if req.Speciation == "" {
		req.Speciation = "single"
	}
	if req.TargetSpecies <= 0 {
		req.TargetSpecies = 4
	}
	if req.WeightPerturb == 0 && req.WeightShuffle == 0 && req.WeightSplice == 0 {
		req.WeightPerturb = 0.7
		req.WeightSplice = 0.3
	}
	if req.WeightPerturb < 0 || req.WeightShuffle < 0 || req.WeightSplice < 0 {
		return RunSummary{}, errors.New("operator weights must be >= 0")
	}

	scoreFn, genomeCodec, length, low, high, err := problemSetup(req.Problem, req.Dimensions, req.Seed)
	if err != nil {
		return RunSummary{}, err
	}

	pop, err := model.NewPopulation(length, req.Population, req.TargetSpecies)
	if err != nil {
		return RunSummary{}, err
	}
	if err := genotype.SeedFloatPopulation(pop, rand.New(rand.NewSource(req.Seed)), req.Population, length, low, high); err != nil {
		return RunSummary{}, err
	}

	selector, err := evo.NewTournamentSelector(req.TournamentRounds)
	if err != nil {
		return RunSummary{}, err
	}
	speciation, err := speciationFromName(req)
	if err != nil {
		return RunSummary{}, err
	}

	engine, err := evo.NewEngine(evo.Config{
		Population:       pop,
		Score:            scoreFn,
		Codec:            genomeCodec,
		Selector:         selector,
		Speciation:       speciation,
		Seed:             req.Seed,
		MaxTries:         req.MaxTries,
		EliteCount:       req.EliteCount,
		Workers:          req.Workers,
		IgnoreExceptions: req.IgnoreExceptions,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := addOperation(engine, "perturb", req.WeightPerturb, map[string]float64{"range": req.PerturbRange}); err != nil {
		return RunSummary{}, err
	}
	if err := addOperation(engine, "shuffle", req.WeightShuffle, nil); err != nil {
		return RunSummary{}, err
	}
	if err := addOperation(engine, "splice", req.WeightSplice, map[string]float64{"cut": float64(req.SpliceCut)}); err != nil {
		return RunSummary{}, err
	}
	for _, name := range req.Adjusters {
		adjuster, err := evo.ResolveAdjuster(name)
		if err != nil {
			return RunSummary{}, err
		}
		if err := engine.AddScoreAdjuster(adjuster); err != nil {
			return RunSummary{}, err
		}
	}

	minimize := scoreFn.ShouldMinimize()
	history := make([]float64, 0, req.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, req.Generations)
	for generation := 0; generation < req.Generations; generation++ {
		if err := engine.Iterate(ctx); err != nil {
			return RunSummary{}, fmt.Errorf("generation %d: %w", generation+1, err)
		}
		history = append(history, engine.BestGenome().Score)
		diagnostics = append(diagnostics, stats.SnapshotGeneration(pop, engine.Iteration(), minimize))
	}
	engine.FinishTraining()

	summary, err := stats.SummarizeRun(history, minimize)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	record := model.RunRecord{
		VersionedRecord: model.NewVersionedRecord(),
		ID:              runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		Problem:         req.Problem,
		Seed:            req.Seed,
		Population:      req.Population,
		Generations:     req.Generations,
		FinalBest:       summary.FinalBest,
		Minimize:        minimize,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, diagnostics); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		Problem:          req.Problem,
		Minimize:         minimize,
		BestByGeneration: history,
		FinalBest:        summary.FinalBest,
		Stats:            summary,
	}, nil
}

func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[len(runs)-limit:]
	}
	return runs, nil
}

func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	return c.store.GetFitnessHistory(ctx, runID)
}

func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	return c.store.GetGenerationDiagnostics(ctx, runID)
}

// SelectionSweep measures tournament selection pressure: a pool of genomes
// whose adjusted scores equal their indexes, sampled repeatedly at each round
// count. Higher averages mean stronger pressure toward fit genomes.
func SelectionSweep(req SweepRequest) ([]SweepPoint, error) {
	if req.Genomes <= 0 {
		req.Genomes = 1000
	}
	if req.Trials <= 0 {
		req.Trials = 100000
	}
	if len(req.Rounds) == 0 {
		req.Rounds = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	}

	sp := &model.Species{ID: "sweep"}
	for i := 0; i < req.Genomes; i++ {
		sp.Add(&model.Genome{
			ID:            fmt.Sprintf("g-%04d", i),
			Score:         float64(i),
			AdjustedScore: float64(i),
			Scored:        true,
		})
	}
	compare := evo.AdjustedScoreComparator{Minimize: false}

	points := make([]SweepPoint, 0, len(req.Rounds))
	for _, rounds := range req.Rounds {
		selector, err := evo.NewTournamentSelector(rounds)
		if err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewSource(req.Seed + int64(rounds)))
		total := 0
		for trial := 0; trial < req.Trials; trial++ {
			idx, err := selector.Select(rng, sp, compare)
			if err != nil {
				return nil, err
			}
			total += idx
		}
		points = append(points, SweepPoint{
			Rounds:       rounds,
			AverageIndex: float64(total) / float64(req.Trials),
		})
	}
	return points, nil
}

func addOperation(engine *evo.Engine, name string, weight float64, params map[string]float64) error {
	if weight <= 0 {
		return nil
	}
	factory, err := evo.ResolveOperatorFactory(name)
	if err != nil {
		return err
	}
	op, err := factory(params)
	if err != nil {
		return err
	}
	return engine.AddOperation(weight, op)
}

func speciationFromName(req RunRequest) (evo.Speciation, error) {
	switch req.Speciation {
	case "single":
		return evo.SingleSpeciation{}, nil
	case "threshold":
		speciation, err := evo.NewThresholdSpeciation(genotype.FloatVectorDistance, req.TargetSpecies)
		if err != nil {
			return nil, err
		}
		speciation.StagnationLimit = req.StagnationLimit
		return speciation, nil
	default:
		return nil, fmt.Errorf("unsupported speciation strategy: %s", req.Speciation)
	}
}

// problemSetup resolves a problem name into a score function, codec, and the
// genome shape to seed. The linreg dataset is generated from the run seed, so
// two runs with the same seed optimize against the same target model.
func problemSetup(problem string, dimensions int, seed int64) (score.Function, codec.Codec, int, float64, float64, error) {
	switch problem {
	case "sphere":
		return score.Sphere{}, codec.FloatVector{}, dimensions, -5, 5, nil
	case "linreg":
		rng := rand.New(rand.NewSource(seed + 999))
		target := &codec.LinearModel{
			Weights: make([]float64, dimensions),
			Bias:    rng.Float64()*4 - 2,
		}
		for i := range target.Weights {
			target.Weights[i] = rng.Float64()*4 - 2
		}
		data := make([]score.Observation, 32)
		for i := range data {
			input := make([]float64, dimensions)
			for j := range input {
				input[j] = rng.Float64()*4 - 2
			}
			data[i] = score.Observation{Input: input, Ideal: target.Compute(input)}
		}
		return score.SumSquaredError{Data: data}, codec.Linear{}, dimensions + 1, -2, 2, nil
	default:
		return nil, nil, 0, 0, 0, fmt.Errorf("unsupported problem: %s", problem)
	}
}
