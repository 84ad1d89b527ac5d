package adapter

import (
	"fmt"
	"math"

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

// Measurement types.
const (
	MeasurementCompound   = "compound"
	MeasurementReaction   = "reaction"
	MeasurementGrowthRate = "growth-rate"
)

// MeasurementOptions tunes the bound-narrowing policy.
type MeasurementOptions struct {
	// Tolerance widens the fixed bound window to [mean-Tolerance,
	// mean+Tolerance]. Zero pins the flux to the measured mean exactly.
	Tolerance float64
}

// FromMeasurements translates measured fluxes into bound operations that
// narrow each target reaction toward the measured mean. Compound
// measurements constrain the metabolite's exchange reaction (negative means
// net uptake), reaction measurements constrain the reaction directly, and
// growth-rate measurements constrain the objective reaction. The window is
// clipped so it never exceeds the magnitude of the reaction's pre-existing
// bounds on the unconstrained side.
func FromMeasurements(m *metnet.Model, objectiveReaction string, measurements []Measurement, opts MeasurementOptions) ([]ops.Operation, []Issue) {
	var operations []ops.Operation
	var issues []Issue

	for _, measurement := range measurements {
		if len(measurement.Measurements) == 0 {
			issues = append(issues, Issue{ID: measurement.ID, Message: "measurement has no sampled values"})
			continue
		}
		reaction, err := targetReaction(m, objectiveReaction, measurement)
		if err != nil {
			issues = append(issues, issuef(measurement.ID, err))
			continue
		}
		mean := measurement.Mean()
		magnitude := math.Max(math.Abs(reaction.LowerBound), math.Abs(reaction.UpperBound))
		lower := math.Max(mean-opts.Tolerance, -magnitude)
		upper := math.Min(mean+opts.Tolerance, magnitude)
		operations = append(operations, ops.ModifyReactionBounds(reaction.ID, lower, upper))
	}
	return operations, issues
}

// TargetFlux is a measurement resolved to a concrete model reaction, the
// shape flux fitting consumes.
type TargetFlux struct {
	ReactionID string
	Value      float64
}

// FluxTargets resolves each measurement to its target reaction and mean
// value without emitting bound operations. Unresolvable measurements become
// per-item issues.
func FluxTargets(m *metnet.Model, objectiveReaction string, measurements []Measurement) ([]TargetFlux, []Issue) {
	var targets []TargetFlux
	var issues []Issue
	for _, measurement := range measurements {
		if len(measurement.Measurements) == 0 {
			issues = append(issues, Issue{ID: measurement.ID, Message: "measurement has no sampled values"})
			continue
		}
		reaction, err := targetReaction(m, objectiveReaction, measurement)
		if err != nil {
			issues = append(issues, issuef(measurement.ID, err))
			continue
		}
		targets = append(targets, TargetFlux{ReactionID: reaction.ID, Value: measurement.Mean()})
	}
	return targets, issues
}

func targetReaction(m *metnet.Model, objectiveReaction string, measurement Measurement) (*metnet.Reaction, error) {
	switch measurement.Type {
	case MeasurementReaction:
		return metnet.FindReaction(m, measurement.ID, measurement.Namespace)
	case MeasurementCompound:
		met, err := metnet.FindMetabolite(m, measurement.ID, measurement.Namespace, ExtracellularCompartment)
		if err != nil {
			return nil, err
		}
		return m.ExchangeFor(met.ID)
	case MeasurementGrowthRate:
		reaction, ok := m.Reaction(objectiveReaction)
		if !ok {
			return nil, metnet.NotFoundError{Kind: metnet.KindReaction, ID: objectiveReaction}
		}
		return reaction, nil
	default:
		return nil, metnet.InvalidInputError{Reason: fmt.Sprintf("unknown measurement type %q", measurement.Type)}
	}
}
