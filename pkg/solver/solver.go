// Package solver defines the capability interface the simulation engine
// optimizes against. The engine only constructs constrained problems and
// interprets solutions; how a solve happens is a backend concern, so
// fitting and flexibilization stay solver-agnostic.
package solver

import "context"

// Status classifies a solve outcome. Infeasible and unbounded are valid
// results, not errors: they are surfaced to callers verbatim.
type Status string

// Solve outcomes.
const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
)

// Variable is a bounded column in the problem, identified by a stable id.
type Variable struct {
	ID    string
	Lower float64
	Upper float64
}

// Constraint is a linear row over variables. Lower == Upper declares an
// equality; otherwise the row value must fall inside [Lower, Upper].
type Constraint struct {
	Name         string
	Coefficients map[string]float64
	Lower        float64
	Upper        float64
}

// Problem is a linear program over bounded variables. Objective maps
// variable ids to linear cost coefficients; variables absent from the map
// carry zero cost.
type Problem struct {
	Variables   []Variable
	Constraints []Constraint
	Objective   map[string]float64
	Maximize    bool
}

// Deviation is one term of a separable quadratic objective: the solver
// minimizes Weight * (value(Variable) - Target)^2 summed over all terms,
// subject to the problem's constraints (the linear objective is ignored).
type Deviation struct {
	Variable string
	Target   float64
	Weight   float64
}

// Solution carries the solved variable values. Values is empty unless
// Status is optimal.
type Solution struct {
	Status    Status
	Objective float64
	Values    map[string]float64
}

// Solver is the optimization collaborator contract. Both calls are
// synchronous and blocking; cancellation beyond ctx is a backend concern.
type Solver interface {
	SolveLinear(ctx context.Context, p Problem) (Solution, error)
	SolveQuadratic(ctx context.Context, p Problem, terms []Deviation) (Solution, error)
}
