package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"phylon/internal/storage"
	phylonapi "phylon/pkg/phylon"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "sweep":
		return runSweep(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "phylon.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := phylonapi.New(phylonapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized %s store\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional JSON run config; explicit flags override config values")
	problem := fs.String("problem", "sphere", "problem to optimize: sphere|linreg")
	dimensions := fs.Int("dims", 10, "problem dimensionality")
	population := fs.Int("pop", 50, "population size")
	generations := fs.Int("gens", 100, "generation count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "scoring worker count")
	rounds := fs.Int("rounds", 3, "tournament rounds per parent selection")
	maxTries := fs.Int("max-tries", 5, "operator retries per offspring slot")
	eliteCount := fs.Int("elites", 1, "best genomes passed through unchanged each generation")
	ignoreExceptions := fs.Bool("ignore-exceptions", false, "fall back to a parent clone when an offspring slot exhausts its retries")
	speciation := fs.String("speciation", "single", "speciation strategy: single|threshold")
	targetSpecies := fs.Int("target-species", 4, "species count target for threshold speciation")
	stagnationLimit := fs.Int("stagnation-limit", 0, "generations before a stagnant species is evicted (0 disables)")
	perturbRange := fs.Float64("perturb-range", 0.1, "relative perturbation span for the perturb operator")
	spliceCut := fs.Int("splice-cut", 0, "crossover segment length (0 uses a third of the genome)")
	wPerturb := fs.Float64("w-perturb", 0.7, "weight for the perturb mutation")
	wShuffle := fs.Float64("w-shuffle", 0.0, "weight for the shuffle mutation")
	wSplice := fs.Float64("w-splice", 0.3, "weight for the splice crossover")
	adjusters := fs.String("adjusters", "", "comma-separated score adjusters: complexity_penalty,stagnation_penalty")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "phylon.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req phylonapi.RunRequest
	if *configPath == "" {
		req = phylonapi.RunRequest{
			Problem:          *problem,
			Dimensions:       *dimensions,
			Population:       *population,
			Generations:      *generations,
			Seed:             *seed,
			Workers:          *workers,
			TournamentRounds: *rounds,
			MaxTries:         *maxTries,
			EliteCount:       *eliteCount,
			IgnoreExceptions: *ignoreExceptions,
			Speciation:       *speciation,
			TargetSpecies:    *targetSpecies,
			StagnationLimit:  *stagnationLimit,
			PerturbRange:     *perturbRange,
			SpliceCut:        *spliceCut,
			WeightPerturb:    *wPerturb,
			WeightShuffle:    *wShuffle,
			WeightSplice:     *wSplice,
			Adjusters:        splitList(*adjusters),
		}
	} else {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		req = loaded
		overrideFromFlags(&req, setFlags, map[string]any{
			"problem":           *problem,
			"dims":              *dimensions,
			"pop":               *population,
			"gens":              *generations,
			"seed":              *seed,
			"workers":           *workers,
			"rounds":            *rounds,
			"max-tries":         *maxTries,
			"elites":            *eliteCount,
			"ignore-exceptions": *ignoreExceptions,
			"speciation":        *speciation,
			"target-species":    *targetSpecies,
			"stagnation-limit":  *stagnationLimit,
			"perturb-range":     *perturbRange,
			"splice-cut":        *spliceCut,
			"w-perturb":         *wPerturb,
			"w-shuffle":         *wShuffle,
			"w-splice":          *wSplice,
			"adjusters":         *adjusters,
		})
	}

	client, err := phylonapi.New(phylonapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(summary)
	}
	fmt.Printf("run %s problem=%s generations=%d final_best=%g improvement=%g\n",
		summary.RunID, summary.Problem, summary.Stats.Generations, summary.FinalBest, summary.Stats.Improvement)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to print (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "phylon.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := phylonapi.New(phylonapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return nil
	}
	for _, record := range runs {
		direction := "max"
		if record.Minimize {
			direction = "min"
		}
		fmt.Printf("%s  %s  problem=%s seed=%d pop=%d gens=%d best=%g (%s)\n",
			record.CreatedAtUTC, record.ID, record.Problem, record.Seed,
			record.Population, record.Generations, record.FinalBest, direction)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "phylon.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("fitness requires -run-id")
	}

	client, err := phylonapi.New(phylonapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	history, ok, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no fitness history for run %s", *runID)
	}
	if *limit > 0 && len(history) > *limit {
		history = history[:*limit]
	}
	if *jsonOut {
		return printJSON(history)
	}
	for i, best := range history {
		fmt.Printf("gen %4d  best=%g\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "phylon.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("diagnostics requires -run-id")
	}

	client, err := phylonapi.New(phylonapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	diagnostics, ok, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no diagnostics for run %s", *runID)
	}
	if *limit > 0 && len(diagnostics) > *limit {
		diagnostics = diagnostics[:*limit]
	}
	if *jsonOut {
		return printJSON(diagnostics)
	}
	for _, diag := range diagnostics {
		fmt.Printf("gen %4d  best=%g mean=%g worst=%g species=%d largest=%d stagnant=%d\n",
			diag.Generation, diag.BestScore, diag.MeanScore, diag.WorstScore,
			diag.SpeciesCount, diag.LargestSpeciesSize, diag.StagnantSpecies)
	}
	return nil
}

func runSweep(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	genomes := fs.Int("genomes", 1000, "pool size with scores equal to indexes")
	trials := fs.Int("trials", 100000, "selections sampled per round count")
	rounds := fs.String("rounds", "1,2,3,4,5,6,7,8,9,10", "comma-separated tournament round counts")
	seed := fs.Int64("seed", 1, "rng seed")
	jsonOut := fs.Bool("json", false, "emit sweep points as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	roundCounts, err := parseRounds(*rounds)
	if err != nil {
		return err
	}
	points, err := phylonapi.SelectionSweep(phylonapi.SweepRequest{
		Genomes: *genomes,
		Trials:  *trials,
		Rounds:  roundCounts,
		Seed:    *seed,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(points)
	}
	for _, point := range points {
		fmt.Printf("rounds %2d  avg_index=%.1f\n", point.Rounds, point.AverageIndex)
	}
	return nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: phylonctl <init|run|runs|fitness|diagnostics|sweep> [flags]", msg)
}
