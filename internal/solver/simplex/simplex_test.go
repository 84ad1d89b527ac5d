package simplex

import (
	"context"
	"math"
	"testing"

	"fluxcore/pkg/solver"
)

const tol = 1e-6

func solve(t *testing.T, p solver.Problem) solver.Solution {
	t.Helper()
	sol, err := New().SolveLinear(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	return sol
}

func TestSolveLinearMaximize(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{
			{ID: "x", Lower: 0, Upper: 10},
			{ID: "y", Lower: 0, Upper: 10},
		},
		Constraints: []solver.Constraint{
			{Name: "cap", Coefficients: map[string]float64{"x": 1, "y": 1}, Lower: math.Inf(-1), Upper: 5},
		},
		Objective: map[string]float64{"x": 1, "y": 1},
		Maximize:  true,
	}
	sol := solve(t, p)
	if sol.Status != solver.StatusOptimal {
		t.Fatalf("status = %s", sol.Status)
	}
	if math.Abs(sol.Objective-5) > tol {
		t.Errorf("objective = %g, want 5", sol.Objective)
	}
	if sum := sol.Values["x"] + sol.Values["y"]; math.Abs(sum-5) > tol {
		t.Errorf("x+y = %g, want 5", sum)
	}
}

func TestSolveLinearEquality(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{
			{ID: "x", Lower: 0, Upper: 3},
			{ID: "y", Lower: 0, Upper: 7},
		},
		Constraints: []solver.Constraint{
			{Name: "link", Coefficients: map[string]float64{"x": 1, "y": -1}, Lower: 0, Upper: 0},
		},
		Objective: map[string]float64{"x": 1},
		Maximize:  true,
	}
	sol := solve(t, p)
	if sol.Status != solver.StatusOptimal {
		t.Fatalf("status = %s", sol.Status)
	}
	if math.Abs(sol.Values["x"]-3) > tol || math.Abs(sol.Values["y"]-3) > tol {
		t.Errorf("values = %v, want x = y = 3", sol.Values)
	}
}

func TestSolveLinearShiftedBounds(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "v", Lower: -10, Upper: -2}},
		Objective: map[string]float64{"v": 1},
	}
	sol := solve(t, p)
	if math.Abs(sol.Values["v"]+10) > tol {
		t.Errorf("minimize v = %g, want -10", sol.Values["v"])
	}
	p.Maximize = true
	sol = solve(t, p)
	if math.Abs(sol.Values["v"]+2) > tol {
		t.Errorf("maximize v = %g, want -2", sol.Values["v"])
	}
}

func TestSolveLinearInfeasible(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "x", Lower: 0, Upper: 1}},
		Constraints: []solver.Constraint{
			{Name: "demand", Coefficients: map[string]float64{"x": 1}, Lower: 5, Upper: 5},
		},
		Objective: map[string]float64{"x": 1},
	}
	sol := solve(t, p)
	if sol.Status != solver.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", sol.Status)
	}
	if len(sol.Values) != 0 {
		t.Errorf("infeasible solution carries values: %v", sol.Values)
	}
}

func TestSolveLinearInvertedVariableBounds(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "x", Lower: 2, Upper: -2}},
	}
	sol := solve(t, p)
	if sol.Status != solver.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", sol.Status)
	}
}

func TestSolveLinearRejectsInfiniteBounds(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "x", Lower: 0, Upper: math.Inf(1)}},
	}
	if _, err := New().SolveLinear(context.Background(), p); err == nil {
		t.Fatalf("infinite bound accepted")
	}
}

func TestSolveLinearUnknownVariable(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "x", Lower: 0, Upper: 1}},
		Constraints: []solver.Constraint{
			{Name: "bad", Coefficients: map[string]float64{"ghost": 1}},
		},
	}
	if _, err := New().SolveLinear(context.Background(), p); err == nil {
		t.Fatalf("unknown constraint variable accepted")
	}
}

func TestSolveLinearCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := solver.Problem{Variables: []solver.Variable{{ID: "x", Lower: 0, Upper: 1}}}
	if _, err := New().SolveLinear(ctx, p); err == nil {
		t.Fatalf("cancelled context accepted")
	}
}

func TestSolveQuadraticUnconstrainedTarget(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "x", Lower: 0, Upper: 10}},
	}
	sol, err := New().SolveQuadratic(context.Background(), p, []solver.Deviation{
		{Variable: "x", Target: 3, Weight: 1},
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != solver.StatusOptimal {
		t.Fatalf("status = %s", sol.Status)
	}
	if math.Abs(sol.Values["x"]-3) > tol {
		t.Errorf("x = %g, want 3", sol.Values["x"])
	}
	if sol.Objective > tol {
		t.Errorf("objective = %g, want 0", sol.Objective)
	}
}

func TestSolveQuadraticBoundLimited(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "x", Lower: 0, Upper: 2}},
	}
	sol, err := New().SolveQuadratic(context.Background(), p, []solver.Deviation{
		{Variable: "x", Target: 3, Weight: 1},
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Values["x"]-2) > tol {
		t.Errorf("x = %g, want 2 (clamped at the bound)", sol.Values["x"])
	}
	if math.Abs(sol.Objective-1) > tol {
		t.Errorf("objective = %g, want 1", sol.Objective)
	}
}

func TestSolveQuadraticCoupled(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{
			{ID: "x", Lower: 0, Upper: 10},
			{ID: "y", Lower: 0, Upper: 10},
		},
		Constraints: []solver.Constraint{
			{Name: "sum", Coefficients: map[string]float64{"x": 1, "y": 1}, Lower: 4, Upper: 4},
		},
	}
	sol, err := New().SolveQuadratic(context.Background(), p, []solver.Deviation{
		{Variable: "x", Target: 3, Weight: 1},
		{Variable: "y", Target: 3, Weight: 1},
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Values["x"]-2) > tol || math.Abs(sol.Values["y"]-2) > tol {
		t.Errorf("values = %v, want x = y = 2", sol.Values)
	}
	if math.Abs(sol.Objective-2) > tol {
		t.Errorf("objective = %g, want 2", sol.Objective)
	}
}

func TestSolveQuadraticInfeasible(t *testing.T) {
	p := solver.Problem{
		Variables: []solver.Variable{{ID: "x", Lower: 0, Upper: 1}},
		Constraints: []solver.Constraint{
			{Name: "demand", Coefficients: map[string]float64{"x": 1}, Lower: 5, Upper: 5},
		},
	}
	sol, err := New().SolveQuadratic(context.Background(), p, []solver.Deviation{
		{Variable: "x", Target: 0, Weight: 1},
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Status != solver.StatusInfeasible {
		t.Errorf("status = %s, want infeasible", sol.Status)
	}
}
