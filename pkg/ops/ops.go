// Package ops defines the closed set of serializable model-editing
// operations and the apply step that replays them against a model. An
// operation sequence is the canonical, order-sensitive description of the
// constraints derived from an experimental condition set: it is stored by
// the delta log and consumed exactly once per simulation against a private
// model copy.
package ops

import (
	"fmt"

	"fluxcore/pkg/metnet"
)

// OpType enumerates the operation verbs on the wire.
type OpType string

// Operation verbs.
const (
	OpAdd      OpType = "add"
	OpModify   OpType = "modify"
	OpKnockout OpType = "knockout"
)

// TargetType enumerates the entity kinds an operation may address.
type TargetType string

// Operation targets.
const (
	TargetReaction TargetType = "reaction"
	TargetGene     TargetType = "gene"
)

// ReactionData carries the payload for add and modify operations. For add it
// describes the full reaction; for modify only the bounds are read.
type ReactionData struct {
	Name        string             `json:"name,omitempty"`
	Metabolites map[string]float64 `json:"metabolites,omitempty"`
	LowerBound  float64            `json:"lower_bound"`
	UpperBound  float64            `json:"upper_bound"`
	GeneRule    string             `json:"gene_reaction_rule,omitempty"`
}

// Operation is one tagged, immutable model edit. Exactly four combinations
// are valid: add/reaction, modify/reaction, knockout/reaction and
// knockout/gene. Operations serialize to JSON-compatible primitives only so
// sequences replay byte-identically.
type Operation struct {
	Operation OpType        `json:"operation"`
	Type      TargetType    `json:"type"`
	ID        string        `json:"id"`
	Data      *ReactionData `json:"data,omitempty"`
}

// AddReaction constructs an add/reaction operation.
func AddReaction(id string, data ReactionData) Operation {
	return Operation{Operation: OpAdd, Type: TargetReaction, ID: id, Data: &data}
}

// ModifyReactionBounds constructs a modify/reaction operation replacing the
// reaction's bounds.
func ModifyReactionBounds(id string, lower, upper float64) Operation {
	return Operation{Operation: OpModify, Type: TargetReaction, ID: id, Data: &ReactionData{LowerBound: lower, UpperBound: upper}}
}

// KnockoutReaction constructs a knockout/reaction operation.
func KnockoutReaction(id string) Operation {
	return Operation{Operation: OpKnockout, Type: TargetReaction, ID: id}
}

// KnockoutGene constructs a knockout/gene operation.
func KnockoutGene(id string) Operation {
	return Operation{Operation: OpKnockout, Type: TargetGene, ID: id}
}

// Validate checks that the operation is one of the four supported variants
// and carries the payload its verb requires.
func (op Operation) Validate() error {
	switch {
	case op.Operation == OpAdd && op.Type == TargetReaction:
		if op.Data == nil {
			return metnet.InvalidInputError{Reason: fmt.Sprintf("operation add %s: missing reaction data", op.ID)}
		}
	case op.Operation == OpModify && op.Type == TargetReaction:
		if op.Data == nil {
			return metnet.InvalidInputError{Reason: fmt.Sprintf("operation modify %s: missing bounds data", op.ID)}
		}
	case op.Operation == OpKnockout && (op.Type == TargetReaction || op.Type == TargetGene):
	default:
		return metnet.InvalidInputError{Reason: fmt.Sprintf("cannot perform operation %q on type %q", op.Operation, op.Type)}
	}
	if op.ID == "" {
		return metnet.InvalidInputError{Reason: "operation missing target id"}
	}
	return nil
}

// Apply replays the operations against the model strictly in sequence
// order. The model is mutated in place, so callers must pass a private
// copy. Apply is not transactional: the first failing operation aborts the
// call and leaves the model partially modified; the caller must discard it.
func Apply(m *metnet.Model, operations []Operation) error {
	for i, op := range operations {
		if err := applyOne(m, op); err != nil {
			return fmt.Errorf("operation %d (%s %s %s): %w", i, op.Operation, op.Type, op.ID, err)
		}
	}
	return nil
}

func applyOne(m *metnet.Model, op Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	switch {
	case op.Operation == OpAdd:
		return m.AddReaction(&metnet.Reaction{
			ID:          op.ID,
			Name:        op.Data.Name,
			Metabolites: cloneStoichiometry(op.Data.Metabolites),
			LowerBound:  op.Data.LowerBound,
			UpperBound:  op.Data.UpperBound,
			GeneRule:    op.Data.GeneRule,
		})
	case op.Operation == OpModify:
		return m.SetBounds(op.ID, op.Data.LowerBound, op.Data.UpperBound)
	case op.Type == TargetReaction:
		if _, ok := m.Reaction(op.ID); !ok {
			return metnet.NotFoundError{Kind: metnet.KindReaction, ID: op.ID}
		}
		return m.KnockoutReaction(op.ID)
	default:
		return m.KnockoutGene(op.ID)
	}
}

func cloneStoichiometry(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for id, coeff := range in {
		out[id] = coeff
	}
	return out
}
