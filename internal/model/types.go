package model

import "fmt"

const (
	// SchemaVersion tracks the shape of archived records.
	SchemaVersion = 1
	// CodecVersion tracks the encoding used to serialize them.
	CodecVersion = 1
)

// VersionedRecord captures schema and codec evolution for archived data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NewVersionedRecord stamps a record with the current versions.
func NewVersionedRecord() VersionedRecord {
	return VersionedRecord{SchemaVersion: SchemaVersion, CodecVersion: CodecVersion}
}

// Representation is the encoded form of a candidate solution. The engine core
// never inspects it beyond size and copying; codecs and variation operators
// know the concrete type.
type Representation interface {
	Size() int
	Copy() Representation
}

// Genome is one candidate solution together with its scores. Score is the raw
// value produced by the score function; AdjustedScore starts equal to Score
// and is rewritten by the adjuster pipeline. SpeciesID is a non-owning
// back-reference to the species the genome currently belongs to.
type Genome struct {
	ID             string
	Representation Representation
	Score          float64
	AdjustedScore  float64
	Scored         bool
	SpeciesID      string
}

// Clone returns a deep copy of the genome under a new ID. Scores and the
// species back-reference carry over, so a clone of a scored genome is not
// rescored.
func (g *Genome) Clone(id string) *Genome {
	clone := &Genome{
		ID:            id,
		Score:         g.Score,
		AdjustedScore: g.AdjustedScore,
		Scored:        g.Scored,
		SpeciesID:     g.SpeciesID,
	}
	if g.Representation != nil {
		clone.Representation = g.Representation.Copy()
	}
	return clone
}

// Species groups similar genomes to bound competition during selection.
// Members keeps a stable order so selection stays deterministic under a
// seeded generator.
type Species struct {
	ID                  string
	Members             []*Genome
	BestScore           float64
	BestScoreSet        bool
	GenerationsStagnant int
}

// Add appends a genome and points its back-reference at this species.
func (s *Species) Add(g *Genome) {
	g.SpeciesID = s.ID
	s.Members = append(s.Members, g)
}

func (s *Species) Len() int {
	return len(s.Members)
}

// Population owns the full candidate pool, partitioned into species.
type Population struct {
	Species           []*Species
	MaxIndividualSize int
	MaxPopulationSize int
	MaxSpecies        int

	speciesSeq int
}

func NewPopulation(maxIndividualSize, maxPopulationSize, maxSpecies int) (*Population, error) {
	if maxIndividualSize <= 0 {
		return nil, fmt.Errorf("max individual size must be > 0, got %d", maxIndividualSize)
	}
	if maxPopulationSize <= 0 {
		return nil, fmt.Errorf("max population size must be > 0, got %d", maxPopulationSize)
	}
	if maxSpecies <= 0 {
		return nil, fmt.Errorf("max species must be > 0, got %d", maxSpecies)
	}
	return &Population{
		MaxIndividualSize: maxIndividualSize,
		MaxPopulationSize: maxPopulationSize,
		MaxSpecies:        maxSpecies,
	}, nil
}

// CreateSpecies appends a new empty species with a sequential, stable ID.
func (p *Population) CreateSpecies() *Species {
	p.speciesSeq++
	sp := &Species{ID: fmt.Sprintf("sp-%04d", p.speciesSeq)}
	p.Species = append(p.Species, sp)
	return sp
}

// SpeciesByID resolves a species back-reference.
func (p *Population) SpeciesByID(id string) (*Species, bool) {
	for _, sp := range p.Species {
		if sp.ID == id {
			return sp, true
		}
	}
	return nil, false
}

// Size is the total member count across all species.
func (p *Population) Size() int {
	total := 0
	for _, sp := range p.Species {
		total += len(sp.Members)
	}
	return total
}

// Genomes flattens the population in species order, member order. The order
// is stable between mutations, which selection relies on.
func (p *Population) Genomes() []*Genome {
	out := make([]*Genome, 0, p.Size())
	for _, sp := range p.Species {
		out = append(out, sp.Members...)
	}
	return out
}

// RunRecord is the archived summary of one training run.
type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	CreatedAtUTC string  `json:"created_at_utc"`
	Problem      string  `json:"problem"`
	Seed         int64   `json:"seed"`
	Population   int     `json:"population"`
	Generations  int     `json:"generations"`
	FinalBest    float64 `json:"final_best"`
	Minimize     bool    `json:"minimize"`
}

// GenerationDiagnostics summarizes one committed generation for reporting.
type GenerationDiagnostics struct {
	VersionedRecord
	Generation         int     `json:"generation"`
	BestScore          float64 `json:"best_score"`
	MeanScore          float64 `json:"mean_score"`
	WorstScore         float64 `json:"worst_score"`
	SpeciesCount       int     `json:"species_count"`
	MeanSpeciesSize    float64 `json:"mean_species_size"`
	LargestSpeciesSize int     `json:"largest_species_size"`
	StagnantSpecies    int     `json:"stagnant_species"`
}
