package evo

import (
	"errors"
	"reflect"
	"testing"
)

func TestAdjusterRegistryLifecycle(t *testing.T) {
	resetRegistriesForTests()
	t.Cleanup(resetRegistriesForTests)

	if err := RegisterAdjuster("", ComplexityPenalty{}); err == nil {
		t.Fatal("expected error for empty adjuster name")
	}
	if err := RegisterAdjuster("complexity", nil); err == nil {
		t.Fatal("expected error for nil adjuster")
	}
	if err := RegisterAdjuster("complexity", ComplexityPenalty{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterAdjuster("complexity", ComplexityPenalty{}); !errors.Is(err, ErrAdjusterExists) {
		t.Fatalf("expected ErrAdjusterExists, got %v", err)
	}

	adjuster, err := ResolveAdjuster("complexity")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if adjuster.Name() != (ComplexityPenalty{}).Name() {
		t.Fatalf("resolved wrong adjuster: %s", adjuster.Name())
	}
	if _, err := ResolveAdjuster("missing"); !errors.Is(err, ErrAdjusterNotFound) {
		t.Fatalf("expected ErrAdjusterNotFound, got %v", err)
	}
}

func TestOperatorFactoryRegistryLifecycle(t *testing.T) {
	resetRegistriesForTests()
	t.Cleanup(resetRegistriesForTests)

	factory := func(params map[string]float64) (Operator, error) {
		return PerturbMutation{Range: params["range"]}, nil
	}
	if err := RegisterOperatorFactory("", factory); err == nil {
		t.Fatal("expected error for empty operator name")
	}
	if err := RegisterOperatorFactory("perturb", nil); err == nil {
		t.Fatal("expected error for nil factory")
	}
	if err := RegisterOperatorFactory("perturb", factory); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterOperatorFactory("perturb", factory); !errors.Is(err, ErrOperatorExists) {
		t.Fatalf("expected ErrOperatorExists, got %v", err)
	}

	resolved, err := ResolveOperatorFactory("perturb")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	op, err := resolved(map[string]float64{"range": 0.25})
	if err != nil {
		t.Fatalf("build operator: %v", err)
	}
	perturb, ok := op.(PerturbMutation)
	if !ok || perturb.Range != 0.25 {
		t.Fatalf("factory produced %#v", op)
	}
	if _, err := ResolveOperatorFactory("missing"); !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestRegistryListingsAreSorted(t *testing.T) {
	resetRegistriesForTests()
	t.Cleanup(resetRegistriesForTests)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := RegisterAdjuster(name, StagnationPenalty{}); err != nil {
			t.Fatalf("register adjuster %s: %v", name, err)
		}
		if err := RegisterOperatorFactory(name, func(map[string]float64) (Operator, error) {
			return ShuffleMutation{}, nil
		}); err != nil {
			t.Fatalf("register factory %s: %v", name, err)
		}
	}

	want := []string{"alpha", "mid", "zeta"}
	if got := ListAdjusters(); !reflect.DeepEqual(got, want) {
		t.Fatalf("adjuster listing: got=%v want=%v", got, want)
	}
	if got := ListOperatorFactories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("operator listing: got=%v want=%v", got, want)
	}
}
