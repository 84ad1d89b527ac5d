// Package sim runs optimization procedures over constrained metabolic
// models: flux balance analysis, its parsimonious variant, measured-flux
// fitting and proteomics flexibilization. The engine only constructs
// problems and interprets solutions; solving is delegated to the injected
// solver capability.
package sim

import (
	"context"
	"fmt"
	"time"

	"fluxcore/internal/observe"
	"fluxcore/pkg/metnet"
	"fluxcore/pkg/solver"
)

// Method selects the optimization procedure.
type Method string

// Supported simulation methods.
const (
	MethodFBA  Method = "fba"
	MethodPFBA Method = "pfba"
)

// Direction overrides the optimization sense.
type Direction string

// Optimization directions.
const (
	DirectionMaximize Direction = "maximize"
	DirectionMinimize Direction = "minimize"
)

// Options tunes a simulation run. Zero values select fba, the model's
// declared objective and maximization.
type Options struct {
	Method Method
	// Objective overrides the objective reaction id when non-empty.
	Objective string
	// Direction overrides the optimization sense when non-empty.
	Direction Direction
}

// Result is a simulation outcome. Infeasible and unbounded are valid
// results: Fluxes is empty and GrowthRate is meaningless unless Status is
// optimal.
type Result struct {
	Status     solver.Status      `json:"status"`
	Fluxes     map[string]float64 `json:"flux_distribution,omitempty"`
	GrowthRate float64            `json:"growth_rate"`
}

// Engine builds optimization problems from models and interprets solver
// solutions.
type Engine struct {
	solver  solver.Solver
	metrics observe.MetricsRecorder
}

// New constructs an engine around a solver. A nil metrics recorder is
// replaced with the no-op recorder.
func New(s solver.Solver, metrics observe.MetricsRecorder) *Engine {
	if metrics == nil {
		metrics = observe.Noop{}
	}
	return &Engine{solver: s, metrics: metrics}
}

// Simulate optimizes the model with the selected method and returns the
// flux distribution, objective flux and terminal status. The model is
// mutated (objective selection), so callers pass a private copy.
func (e *Engine) Simulate(ctx context.Context, m *metnet.Model, objectiveReaction string, opts Options) (Result, error) {
	method := opts.Method
	if method == "" {
		method = MethodFBA
	}
	start := time.Now()
	result, err := e.simulate(ctx, m, objectiveReaction, method, opts)
	status := string(result.Status)
	if err != nil {
		status = "error"
	}
	e.metrics.ObserveSimulation(string(method), status, time.Since(start))
	return result, err
}

func (e *Engine) simulate(ctx context.Context, m *metnet.Model, objectiveReaction string, method Method, opts Options) (Result, error) {
	objective := opts.Objective
	if objective == "" {
		objective = objectiveReaction
	}
	if err := m.SetObjective(objective); err != nil {
		return Result{}, err
	}
	maximize := opts.Direction != DirectionMinimize

	switch method {
	case MethodFBA:
		return e.fba(ctx, m, objective, maximize)
	case MethodPFBA:
		return e.pfba(ctx, m, objective, maximize)
	default:
		return Result{}, metnet.InvalidInputError{Reason: fmt.Sprintf("unknown simulation method %q", method)}
	}
}

func (e *Engine) fba(ctx context.Context, m *metnet.Model, objective string, maximize bool) (Result, error) {
	problem := fluxProblem(m)
	problem.Maximize = maximize
	for _, r := range m.Objective() {
		problem.Objective[r.ID] = r.ObjectiveCoefficient
	}
	sol, err := e.solver.SolveLinear(ctx, problem)
	if err != nil {
		return Result{}, fmt.Errorf("fba solve: %w", err)
	}
	if sol.Status != solver.StatusOptimal {
		return Result{Status: sol.Status}, nil
	}
	return Result{Status: sol.Status, Fluxes: sol.Values, GrowthRate: sol.Values[objective]}, nil
}

// pfba first finds the fba optimum, then re-solves minimizing total
// absolute flux with the objective pinned at that optimum. The second
// solve splits each flux into non-negative forward and reverse parts.
func (e *Engine) pfba(ctx context.Context, m *metnet.Model, objective string, maximize bool) (Result, error) {
	first, err := e.fba(ctx, m, objective, maximize)
	if err != nil || first.Status != solver.StatusOptimal {
		return first, err
	}

	problem := splitFluxProblem(m)
	pin := solver.Constraint{
		Name:         "pin_objective",
		Coefficients: make(map[string]float64),
		Lower:        first.GrowthRate,
		Upper:        first.GrowthRate,
	}
	for _, r := range m.Objective() {
		pin.Coefficients[forwardVar(r.ID)] = r.ObjectiveCoefficient
		pin.Coefficients[reverseVar(r.ID)] = -r.ObjectiveCoefficient
	}
	problem.Constraints = append(problem.Constraints, pin)

	sol, err := e.solver.SolveLinear(ctx, problem)
	if err != nil {
		return Result{}, fmt.Errorf("pfba solve: %w", err)
	}
	if sol.Status != solver.StatusOptimal {
		return Result{Status: sol.Status}, nil
	}
	fluxes := make(map[string]float64, len(m.Reactions()))
	for _, r := range m.Reactions() {
		fluxes[r.ID] = sol.Values[forwardVar(r.ID)] - sol.Values[reverseVar(r.ID)]
	}
	return Result{Status: sol.Status, Fluxes: fluxes, GrowthRate: fluxes[objective]}, nil
}

// fluxProblem builds the standard FBA program: one bounded variable per
// reaction flux and one steady-state mass balance equality per metabolite.
func fluxProblem(m *metnet.Model) solver.Problem {
	reactions := m.Reactions()
	problem := solver.Problem{
		Variables: make([]solver.Variable, 0, len(reactions)),
		Objective: make(map[string]float64),
	}
	balance := make(map[string]map[string]float64, len(m.Metabolites()))
	for _, r := range reactions {
		problem.Variables = append(problem.Variables, solver.Variable{ID: r.ID, Lower: r.LowerBound, Upper: r.UpperBound})
		for metID, coeff := range r.Metabolites {
			row := balance[metID]
			if row == nil {
				row = make(map[string]float64)
				balance[metID] = row
			}
			row[r.ID] += coeff
		}
	}
	for _, met := range m.Metabolites() {
		row, ok := balance[met.ID]
		if !ok {
			continue
		}
		problem.Constraints = append(problem.Constraints, solver.Constraint{
			Name:         "mass_balance_" + met.ID,
			Coefficients: row,
		})
	}
	return problem
}

func forwardVar(reactionID string) string { return "fwd:" + reactionID }
func reverseVar(reactionID string) string { return "rev:" + reactionID }

// splitFluxProblem rewrites each flux v in [l, u] as v = fwd - rev with
// fwd in [max(0,l), max(0,u)] and rev in [max(0,-u), max(0,-l)], and
// minimizes the sum of both parts. Mass balance rows carry the split
// coefficients so the steady state invariant is unchanged.
func splitFluxProblem(m *metnet.Model) solver.Problem {
	reactions := m.Reactions()
	problem := solver.Problem{
		Variables: make([]solver.Variable, 0, 2*len(reactions)),
		Objective: make(map[string]float64, 2*len(reactions)),
	}
	balance := make(map[string]map[string]float64, len(m.Metabolites()))
	for _, r := range reactions {
		fwd, rev := forwardVar(r.ID), reverseVar(r.ID)
		problem.Variables = append(problem.Variables,
			solver.Variable{ID: fwd, Lower: max(0, r.LowerBound), Upper: max(0, r.UpperBound)},
			solver.Variable{ID: rev, Lower: max(0, -r.UpperBound), Upper: max(0, -r.LowerBound)},
		)
		problem.Objective[fwd] = 1
		problem.Objective[rev] = 1
		for metID, coeff := range r.Metabolites {
			row := balance[metID]
			if row == nil {
				row = make(map[string]float64)
				balance[metID] = row
			}
			row[fwd] += coeff
			row[rev] -= coeff
		}
	}
	for _, met := range m.Metabolites() {
		row, ok := balance[met.ID]
		if !ok {
			continue
		}
		problem.Constraints = append(problem.Constraints, solver.Constraint{
			Name:         "mass_balance_" + met.ID,
			Coefficients: row,
		})
	}
	return problem
}
