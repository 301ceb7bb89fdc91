package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	phylonapi "phylon/pkg/phylon"
)

func loadRunRequestFromConfig(path string) (phylonapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return phylonapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return phylonapi.RunRequest{}, err
	}

	var req phylonapi.RunRequest
	if v, ok := asString(raw["problem"]); ok {
		req.Problem = v
	}
	if v, ok := asInt(raw["dimensions"]); ok {
		req.Dimensions = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asInt(raw["tournament_rounds"]); ok {
		req.TournamentRounds = v
	}
	if v, ok := asInt(raw["max_tries"]); ok {
		req.MaxTries = v
	}
	if v, ok := asInt(raw["elite_count"]); ok {
		req.EliteCount = v
	}
	if v, ok := asBool(raw["ignore_exceptions"]); ok {
		req.IgnoreExceptions = v
	}
	if v, ok := asString(raw["speciation"]); ok {
		req.Speciation = v
	}
	if v, ok := asInt(raw["target_species"]); ok {
		req.TargetSpecies = v
	}
	if v, ok := asInt(raw["stagnation_limit"]); ok {
		req.StagnationLimit = v
	}
	if v, ok := asFloat64(raw["perturb_range"]); ok {
		req.PerturbRange = v
	}
	if v, ok := asInt(raw["splice_cut"]); ok {
		req.SpliceCut = v
	}
	if v, ok := asFloat64(raw["weight_perturb"]); ok {
		req.WeightPerturb = v
	}
	if v, ok := asFloat64(raw["weight_shuffle"]); ok {
		req.WeightShuffle = v
	}
	if v, ok := asFloat64(raw["weight_splice"]); ok {
		req.WeightSplice = v
	}
	if list, ok := raw["adjusters"].([]any); ok {
		for _, item := range list {
			if name, ok := asString(item); ok && name != "" {
				req.Adjusters = append(req.Adjusters, name)
			}
		}
	}
	return req, nil
}

func overrideFromFlags(req *phylonapi.RunRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "problem":
			req.Problem = v.(string)
		case "dims":
			req.Dimensions = v.(int)
		case "pop":
			req.Population = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		case "rounds":
			req.TournamentRounds = v.(int)
		case "max-tries":
			req.MaxTries = v.(int)
		case "elites":
			req.EliteCount = v.(int)
		case "ignore-exceptions":
			req.IgnoreExceptions = v.(bool)
		case "speciation":
			req.Speciation = v.(string)
		case "target-species":
			req.TargetSpecies = v.(int)
		case "stagnation-limit":
			req.StagnationLimit = v.(int)
		case "perturb-range":
			req.PerturbRange = v.(float64)
		case "splice-cut":
			req.SpliceCut = v.(int)
		case "w-perturb":
			req.WeightPerturb = v.(float64)
		case "w-shuffle":
			req.WeightShuffle = v.(float64)
		case "w-splice":
			req.WeightSplice = v.(float64)
		case "adjusters":
			req.Adjusters = splitList(v.(string))
		}
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseRounds(raw string) ([]int, error) {
	var rounds []int
	for _, part := range splitList(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid round count %q: %w", part, err)
		}
		rounds = append(rounds, n)
	}
	return rounds, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
