package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrAdjusterExists   = errors.New("score adjuster already registered")
	ErrAdjusterNotFound = errors.New("score adjuster not found")
	ErrOperatorExists   = errors.New("operator factory already registered")
	ErrOperatorNotFound = errors.New("operator factory not found")
)

// OperatorFactory builds an operator from named numeric parameters, so a run
// can be wired entirely from a config file.
type OperatorFactory func(params map[string]float64) (Operator, error)

var adjusterRegistry = struct {
	mu sync.RWMutex
	m  map[string]ScoreAdjuster
}{
	m: make(map[string]ScoreAdjuster),
}

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]OperatorFactory
}{
	m: make(map[string]OperatorFactory),
}

func RegisterAdjuster(name string, adjuster ScoreAdjuster) error {
	if name == "" {
		return errors.New("adjuster name is required")
	}
	if adjuster == nil {
		return errors.New("adjuster is required")
	}

	adjusterRegistry.mu.Lock()
	defer adjusterRegistry.mu.Unlock()

	if _, exists := adjusterRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrAdjusterExists, name)
	}
	adjusterRegistry.m[name] = adjuster
	return nil
}

func ResolveAdjuster(name string) (ScoreAdjuster, error) {
	adjusterRegistry.mu.RLock()
	defer adjusterRegistry.mu.RUnlock()

	adjuster, ok := adjusterRegistry.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdjusterNotFound, name)
	}
	return adjuster, nil
}

func ListAdjusters() []string {
	adjusterRegistry.mu.RLock()
	defer adjusterRegistry.mu.RUnlock()

	names := make([]string, 0, len(adjusterRegistry.m))
	for name := range adjusterRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func RegisterOperatorFactory(name string, factory OperatorFactory) error {
	if name == "" {
		return errors.New("operator name is required")
	}
	if factory == nil {
		return errors.New("operator factory is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.m[name] = factory
	return nil
}

func ResolveOperatorFactory(name string) (OperatorFactory, error) {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	factory, ok := operatorRegistry.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return factory, nil
}

func ListOperatorFactories() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetRegistriesForTests() {
	adjusterRegistry.mu.Lock()
	adjusterRegistry.m = make(map[string]ScoreAdjuster)
	adjusterRegistry.mu.Unlock()

	operatorRegistry.mu.Lock()
	operatorRegistry.m = make(map[string]OperatorFactory)
	operatorRegistry.mu.Unlock()
}
