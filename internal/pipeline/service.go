// Package pipeline orchestrates the constraint-derivation and simulation
// flow: experimental conditions are translated into operation sequences,
// recorded in the delta log, replayed onto private model copies and handed
// to the simulation engine. The service never mutates a canonical model;
// every entry point works on a Copy.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"fluxcore/internal/adapter"
	"fluxcore/internal/deltalog"
	"fluxcore/internal/modelstore"
	"fluxcore/internal/observe"
	"fluxcore/internal/sim"
	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

// Conditions is the wire-level experimental condition payload.
type Conditions struct {
	Medium       []adapter.Compound    `json:"medium,omitempty"`
	Genotype     []string              `json:"genotype,omitempty"`
	Measurements []adapter.Measurement `json:"measurements,omitempty"`
}

// Empty reports whether the payload carries no conditions at all.
func (c Conditions) Empty() bool {
	return len(c.Medium) == 0 && len(c.Genotype) == 0 && len(c.Measurements) == 0
}

// Service wires the pipeline collaborators together.
type Service struct {
	models  modelstore.Store
	deltas  deltalog.Log
	engine  *sim.Engine
	parts   adapter.PartsLookup
	metrics observe.MetricsRecorder
}

// New constructs the pipeline service. A nil metrics recorder is replaced
// with the no-op recorder.
func New(models modelstore.Store, deltas deltalog.Log, engine *sim.Engine, parts adapter.PartsLookup, metrics observe.MetricsRecorder) *Service {
	if metrics == nil {
		metrics = observe.Noop{}
	}
	return &Service{models: models, deltas: deltas, engine: engine, parts: parts, metrics: metrics}
}

// ModifyResult is the outcome of deriving operations from conditions.
type ModifyResult struct {
	// Key addresses the stored delta; empty when issues prevented a save.
	Key        string          `json:"delta_key,omitempty"`
	Operations []ops.Operation `json:"operations"`
	Issues     []adapter.Issue `json:"issues,omitempty"`
}

// ModifyModel derives the operation sequence for the conditions against the
// named model and records it in the delta log. Adapters run in a fixed
// order (medium, genotype, measurements) and each adapter's operations are
// applied to the working copy before the next runs, so later resolution
// sees earlier edits. Per-item resolution failures do not abort: they are
// returned as issues, and a derivation with any issue is not saved.
func (s *Service) ModifyModel(ctx context.Context, modelID string, conditions Conditions) (ModifyResult, error) {
	wrapper, err := s.models.Get(ctx, modelID)
	if err != nil {
		return ModifyResult{}, err
	}
	work := wrapper.Copy()

	var all []ops.Operation
	var issues []adapter.Issue

	stage := func(name string, operations []ops.Operation, stageIssues []adapter.Issue) error {
		s.metrics.ObserveAdapter(name, len(stageIssues))
		issues = append(issues, stageIssues...)
		if err := ops.Apply(work.Model, operations); err != nil {
			return fmt.Errorf("apply %s operations: %w", name, err)
		}
		all = append(all, operations...)
		return nil
	}

	if len(conditions.Medium) > 0 {
		operations, stageIssues := adapter.FromMedium(work.Model, conditions.Medium)
		if err := stage("medium", operations, stageIssues); err != nil {
			return ModifyResult{}, err
		}
	}
	if len(conditions.Genotype) > 0 {
		operations, stageIssues := adapter.FromGenotype(ctx, s.parts, conditions.Genotype)
		if err := stage("genotype", operations, stageIssues); err != nil {
			return ModifyResult{}, err
		}
	}
	if len(conditions.Measurements) > 0 {
		operations, stageIssues := adapter.FromMeasurements(work.Model, wrapper.BiomassReaction, conditions.Measurements, adapter.MeasurementOptions{})
		if err := stage("measurements", operations, stageIssues); err != nil {
			return ModifyResult{}, err
		}
	}

	if len(issues) > 0 {
		return ModifyResult{Operations: all, Issues: issues}, nil
	}
	key, err := s.deltas.Save(ctx, modelID, conditions, all)
	if err != nil {
		s.metrics.IncDeltaSave("error")
		return ModifyResult{}, fmt.Errorf("save delta: %w", err)
	}
	s.metrics.IncDeltaSave("saved")
	return ModifyResult{Key: key, Operations: all}, nil
}

// SimulateRequest selects a model, the operations to replay onto it and
// the optimization to run. Exactly one of ModelID and Model must be set;
// an inline Model document bypasses the store.
type SimulateRequest struct {
	ModelID string          `json:"model_id,omitempty"`
	Model   json.RawMessage `json:"model,omitempty"`
	// DeltaKey replays a previously derived operation sequence before
	// Operations.
	DeltaKey   string          `json:"delta_key,omitempty"`
	Operations []ops.Operation `json:"operations,omitempty"`
	Method     sim.Method      `json:"method,omitempty"`
	Objective  string          `json:"objective,omitempty"`
	Direction  sim.Direction   `json:"direction,omitempty"`
}

// Simulate materializes a private constrained model copy and runs the
// selected optimization over it.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (sim.Result, error) {
	model, objective, err := s.materialize(ctx, req.ModelID, req.Model)
	if err != nil {
		return sim.Result{}, err
	}
	operations, err := s.collectOperations(ctx, req.DeltaKey, req.Operations)
	if err != nil {
		return sim.Result{}, err
	}
	if err := ops.Apply(model, operations); err != nil {
		return sim.Result{}, err
	}
	return s.engine.Simulate(ctx, model, objective, sim.Options{
		Method:    req.Method,
		Objective: req.Objective,
		Direction: req.Direction,
	})
}

// FitRequest describes a measured-flux fit over a stored model.
type FitRequest struct {
	ModelID    string          `json:"model_id"`
	DeltaKey   string          `json:"delta_key,omitempty"`
	Operations []ops.Operation `json:"operations,omitempty"`
	// GrowthRate anchors the fit when no growth-rate measurement is given.
	GrowthRate   *float64              `json:"growth_rate,omitempty"`
	Measurements []adapter.Measurement `json:"measurements"`
	Norm         sim.Norm              `json:"norm,omitempty"`
}

// FitOutcome pairs the fit solution with any measurement resolution issues.
type FitOutcome struct {
	sim.FitResult
	Issues []adapter.Issue `json:"issues,omitempty"`
}

// FitMeasurements resolves the measurements against a private model copy
// and fits the model's fluxes to them.
func (s *Service) FitMeasurements(ctx context.Context, req FitRequest) (FitOutcome, error) {
	wrapper, err := s.models.Get(ctx, req.ModelID)
	if err != nil {
		return FitOutcome{}, err
	}
	work := wrapper.Copy()
	operations, err := s.collectOperations(ctx, req.DeltaKey, req.Operations)
	if err != nil {
		return FitOutcome{}, err
	}
	if err := ops.Apply(work.Model, operations); err != nil {
		return FitOutcome{}, err
	}
	targets, issues := adapter.FluxTargets(work.Model, work.BiomassReaction, req.Measurements)
	fitTargets := make([]sim.FitTarget, 0, len(targets))
	for _, t := range targets {
		fitTargets = append(fitTargets, sim.FitTarget{Reaction: t.ReactionID, Value: t.Value})
	}
	result, err := s.engine.MinimizeDistance(ctx, work.Model, work.BiomassReaction, sim.FitRequest{
		GrowthRate: req.GrowthRate,
		Targets:    fitTargets,
		Norm:       req.Norm,
	})
	if err != nil {
		return FitOutcome{Issues: issues}, err
	}
	return FitOutcome{FitResult: result, Issues: issues}, nil
}

// FlexRequest describes a proteomics flexibilization search.
type FlexRequest struct {
	ModelID              string                `json:"model_id"`
	GrowthRate           float64               `json:"growth_rate"`
	Proteomics           []sim.ProteomicsEntry `json:"proteomics"`
	UptakeSecretionRates []sim.ExchangeRate    `json:"uptake_secretion_rates,omitempty"`
}

// FlexibilizeProteomics relaxes the proteomics constraint set until the
// target growth rate is feasible.
func (s *Service) FlexibilizeProteomics(ctx context.Context, req FlexRequest) (sim.FlexResult, error) {
	wrapper, err := s.models.Get(ctx, req.ModelID)
	if err != nil {
		return sim.FlexResult{}, err
	}
	return s.engine.FlexibilizeProteomics(ctx, wrapper.Model, wrapper.BiomassReaction, req.GrowthRate, req.Proteomics, req.UptakeSecretionRates)
}

func (s *Service) materialize(ctx context.Context, modelID string, inline json.RawMessage) (*metnet.Model, string, error) {
	switch {
	case len(inline) > 0 && modelID != "":
		return nil, "", metnet.InvalidInputError{Reason: "model_id and inline model are mutually exclusive"}
	case len(inline) > 0:
		model, err := metnet.DecodeDocument(inline)
		if err != nil {
			return nil, "", metnet.InvalidInputError{Reason: err.Error()}
		}
		objective := ""
		if objs := model.Objective(); len(objs) > 0 {
			objective = objs[0].ID
		}
		return model, objective, nil
	case modelID != "":
		wrapper, err := s.models.Get(ctx, modelID)
		if err != nil {
			return nil, "", err
		}
		work := wrapper.Copy()
		return work.Model, work.BiomassReaction, nil
	default:
		return nil, "", metnet.InvalidInputError{Reason: "either model_id or an inline model is required"}
	}
}

func (s *Service) collectOperations(ctx context.Context, deltaKey string, inline []ops.Operation) ([]ops.Operation, error) {
	var operations []ops.Operation
	if deltaKey != "" {
		stored, err := s.deltas.Load(ctx, deltaKey)
		if err != nil {
			return nil, err
		}
		operations = append(operations, stored...)
	}
	return append(operations, inline...), nil
}
