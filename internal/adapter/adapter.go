// Package adapter translates heterogeneous experimental conditions (growth
// medium, genetic perturbations, flux measurements) into ordered operation
// sequences against a metabolic network model. Adapters are pure with
// respect to the model: they only resolve identifiers and emit operations;
// nothing is applied here.
//
// Resolution failures are never raised. Each adapter accumulates per-item
// issues and returns the operations that did resolve, leaving the caller to
// decide whether partial success is acceptable. Operation order is
// load-bearing: operations are appended in declaration order so later bound
// modifications deterministically override earlier ones on replay.
package adapter

import "context"

// Issue is a structured per-item report of a condition entry that could not
// be translated.
type Issue struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func issuef(id string, err error) Issue {
	return Issue{ID: id, Message: err.Error()}
}

// Compound identifies a medium component within an external namespace.
type Compound struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
}

// Measurement is one measured quantity with its sampled values. Type is one
// of "compound" (metabolite uptake/secretion), "reaction" (direct flux) or
// "growth-rate" (objective reaction flux).
type Measurement struct {
	Type         string    `json:"type"`
	ID           string    `json:"id"`
	Namespace    string    `json:"namespace,omitempty"`
	Measurements []float64 `json:"measurements"`
}

// Mean returns the central tendency of the sampled values.
func (m Measurement) Mean() float64 {
	if len(m.Measurements) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m.Measurements {
		sum += v
	}
	return sum / float64(len(m.Measurements))
}

// PartsLookup is the external genotype/part resolution collaborator used by
// the genotype adapter (a genetic parts registry in production).
type PartsLookup interface {
	// ResolveGene maps a gene token to the canonical gene identifier used
	// by models.
	ResolveGene(ctx context.Context, name string) (string, error)
	// ReactionEquations returns the reactions a genetic part introduces,
	// keyed by reaction id.
	ReactionEquations(ctx context.Context, part string) (map[string]ReactionEquation, error)
}

// ReactionEquation describes one reaction introduced by a genetic part.
type ReactionEquation struct {
	Name        string             `json:"name,omitempty"`
	Metabolites map[string]float64 `json:"metabolites"`
	LowerBound  float64            `json:"lower_bound"`
	UpperBound  float64            `json:"upper_bound"`
	GeneRule    string             `json:"gene_reaction_rule,omitempty"`
}
