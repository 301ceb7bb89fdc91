package codec

import (
	"errors"
	"fmt"

	"phylon/internal/genotype"
	"phylon/internal/model"
)

// Codec translates between a genome representation and the phenotype a score
// function evaluates. Encode and Decode are inverses for any genome the
// engine produces.
type Codec interface {
	Name() string
	Decode(r model.Representation) (any, error)
	Encode(phenotype any) (model.Representation, error)
}

var ErrUnsupportedType = errors.New("codec does not support this type")

// Identity hands the representation to the score function unchanged.
type Identity struct{}

func (Identity) Name() string {
	return "identity"
}

func (Identity) Decode(r model.Representation) (any, error) {
	if r == nil {
		return nil, errors.New("representation is required")
	}
	return r, nil
}

func (Identity) Encode(phenotype any) (model.Representation, error) {
	r, ok := phenotype.(model.Representation)
	if !ok {
		return nil, fmt.Errorf("%w: identity wants a Representation, got %T", ErrUnsupportedType, phenotype)
	}
	return r, nil
}

// FloatVector decodes a float-vector genome into the raw []float64 the
// benchmark score functions evaluate.
type FloatVector struct{}

func (FloatVector) Name() string {
	return "float_vector"
}

func (FloatVector) Decode(r model.Representation) (any, error) {
	vec, ok := r.(*genotype.FloatVector)
	if !ok {
		return nil, fmt.Errorf("%w: float_vector wants *genotype.FloatVector, got %T", ErrUnsupportedType, r)
	}
	return append([]float64(nil), vec.Values...), nil
}

func (FloatVector) Encode(phenotype any) (model.Representation, error) {
	values, ok := phenotype.([]float64)
	if !ok {
		return nil, fmt.Errorf("%w: float_vector wants []float64, got %T", ErrUnsupportedType, phenotype)
	}
	return &genotype.FloatVector{Values: append([]float64(nil), values...)}, nil
}

// LinearModel is a single-output linear regressor phenotype.
type LinearModel struct {
	Weights []float64
	Bias    float64
}

func (m *LinearModel) Compute(input []float64) []float64 {
	total := m.Bias
	n := len(m.Weights)
	if len(input) < n {
		n = len(input)
	}
	for i := 0; i < n; i++ {
		total += m.Weights[i] * input[i]
	}
	return []float64{total}
}

// Linear decodes a float-vector genome of length n+1 into a LinearModel with
// n weights and a trailing bias term.
type Linear struct{}

func (Linear) Name() string {
	return "linear"
}

func (Linear) Decode(r model.Representation) (any, error) {
	vec, ok := r.(*genotype.FloatVector)
	if !ok {
		return nil, fmt.Errorf("%w: linear wants *genotype.FloatVector, got %T", ErrUnsupportedType, r)
	}
	if len(vec.Values) < 2 {
		return nil, fmt.Errorf("linear genome needs at least 2 components, got %d", len(vec.Values))
	}
	last := len(vec.Values) - 1
	return &LinearModel{
		Weights: append([]float64(nil), vec.Values[:last]...),
		Bias:    vec.Values[last],
	}, nil
}

func (Linear) Encode(phenotype any) (model.Representation, error) {
	m, ok := phenotype.(*LinearModel)
	if !ok {
		return nil, fmt.Errorf("%w: linear wants *LinearModel, got %T", ErrUnsupportedType, phenotype)
	}
	values := append([]float64(nil), m.Weights...)
	values = append(values, m.Bias)
	return &genotype.FloatVector{Values: values}, nil
}
