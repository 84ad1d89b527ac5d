package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/solver"
)

// Norm selects the deviation penalty used by flux fitting.
type Norm string

// Supported fitting norms.
const (
	// NormL1 minimizes total absolute deviation (the default).
	NormL1 Norm = "l1"
	// NormL2 minimizes total squared deviation.
	NormL2 Norm = "l2"
)

// FitTarget is one measured flux the fit is pulled toward. Zero weight
// means unit weight.
type FitTarget struct {
	Reaction string
	Value    float64
	Weight   float64
}

// FitRequest describes a measured-flux fit.
type FitRequest struct {
	// GrowthRate, when set, anchors the fit by forcing the objective
	// reaction flux to at least this value.
	GrowthRate *float64
	Targets    []FitTarget
	// Norm defaults to NormL1.
	Norm Norm
}

// FitResult is a solved fit. Distance is the total absolute deviation
// between the fitted fluxes and the targets, regardless of the norm the
// solve minimized.
type FitResult struct {
	Status   solver.Status      `json:"status"`
	Fluxes   map[string]float64 `json:"flux_distribution,omitempty"`
	Distance float64            `json:"distance"`
}

const (
	deviationPlusPrefix  = "dev+:"
	deviationMinusPrefix = "dev-:"
)

// MinimizeDistance fits the model's fluxes to the measured targets subject
// to mass balance and bounds. Without a growth-rate anchor the fit is
// underdetermined and fails with InvalidInput: either GrowthRate must be
// set or one target must name the objective reaction. The model is mutated
// (growth bound), so callers pass a private copy.
func (e *Engine) MinimizeDistance(ctx context.Context, m *metnet.Model, objectiveReaction string, req FitRequest) (FitResult, error) {
	start := time.Now()
	result, err := e.minimizeDistance(ctx, m, objectiveReaction, req)
	status := string(result.Status)
	if err != nil {
		status = "error"
	}
	e.metrics.ObserveSimulation("fit", status, time.Since(start))
	return result, err
}

func (e *Engine) minimizeDistance(ctx context.Context, m *metnet.Model, objectiveReaction string, req FitRequest) (FitResult, error) {
	if len(req.Targets) == 0 {
		return FitResult{}, metnet.InvalidInputError{Reason: "flux fit requires at least one measured target"}
	}
	anchored := req.GrowthRate != nil
	for _, t := range req.Targets {
		if t.Reaction == objectiveReaction {
			anchored = true
		}
	}
	if !anchored {
		return FitResult{}, metnet.InvalidInputError{Reason: "flux fit requires a growth-rate anchor"}
	}
	if req.GrowthRate != nil {
		obj, ok := m.Reaction(objectiveReaction)
		if !ok {
			return FitResult{}, metnet.NotFoundError{Kind: metnet.KindReaction, ID: objectiveReaction}
		}
		if err := m.SetBounds(objectiveReaction, *req.GrowthRate, obj.UpperBound); err != nil {
			return FitResult{}, err
		}
	}
	for _, t := range req.Targets {
		if _, ok := m.Reaction(t.Reaction); !ok {
			return FitResult{}, metnet.NotFoundError{Kind: metnet.KindReaction, ID: t.Reaction}
		}
	}

	norm := req.Norm
	if norm == "" {
		norm = NormL1
	}
	var (
		sol solver.Solution
		err error
	)
	switch norm {
	case NormL1:
		sol, err = e.solver.SolveLinear(ctx, absoluteDeviationProblem(m, req.Targets))
	case NormL2:
		terms := make([]solver.Deviation, 0, len(req.Targets))
		for _, t := range req.Targets {
			terms = append(terms, solver.Deviation{Variable: t.Reaction, Target: t.Value, Weight: weightOf(t)})
		}
		sol, err = e.solver.SolveQuadratic(ctx, fluxProblem(m), terms)
	default:
		return FitResult{}, metnet.InvalidInputError{Reason: fmt.Sprintf("unknown fitting norm %q", norm)}
	}
	if err != nil {
		return FitResult{}, fmt.Errorf("fit solve: %w", err)
	}
	if sol.Status != solver.StatusOptimal {
		return FitResult{Status: sol.Status}, nil
	}

	fluxes := make(map[string]float64, len(m.Reactions()))
	for _, r := range m.Reactions() {
		fluxes[r.ID] = sol.Values[r.ID]
	}
	distance := 0.0
	for _, t := range req.Targets {
		distance += math.Abs(fluxes[t.Reaction] - t.Value)
	}
	return FitResult{Status: sol.Status, Fluxes: fluxes, Distance: distance}, nil
}

// absoluteDeviationProblem extends the flux program with a non-negative
// deviation pair per target and the linking rows
// v - d+ + d- = target, then minimizes the weighted deviation sum.
func absoluteDeviationProblem(m *metnet.Model, targets []FitTarget) solver.Problem {
	problem := fluxProblem(m)
	problem.Maximize = false
	for _, t := range targets {
		plus := deviationPlusPrefix + t.Reaction
		minus := deviationMinusPrefix + t.Reaction
		problem.Variables = append(problem.Variables,
			solver.Variable{ID: plus, Lower: 0, Upper: 2 * metnet.DefaultBound},
			solver.Variable{ID: minus, Lower: 0, Upper: 2 * metnet.DefaultBound},
		)
		w := weightOf(t)
		problem.Objective[plus] = w
		problem.Objective[minus] = w
		problem.Constraints = append(problem.Constraints, solver.Constraint{
			Name:         "fit_" + t.Reaction,
			Coefficients: map[string]float64{t.Reaction: 1, plus: -1, minus: 1},
			Lower:        t.Value,
			Upper:        t.Value,
		})
	}
	return problem
}

func weightOf(t FitTarget) float64 {
	if t.Weight == 0 {
		return 1
	}
	return t.Weight
}
