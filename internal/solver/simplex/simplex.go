// Package simplex is the reference optimization backend: a dense two-phase
// simplex over bounded variables, plus a Frank-Wolfe wrapper that provides
// the quadratic capability on top of the linear one. It exists so the
// pipeline runs end to end without an external LP/QP dependency; production
// deployments substitute their own solver.Solver implementation.
package simplex

import (
	"context"
	"fmt"
	"math"

	"fluxcore/pkg/solver"
)

const (
	pivotTol = 1e-9
	feasTol  = 1e-7
)

// Solver implements solver.Solver with a dense tableau simplex. Suitable
// for the modest problem sizes of tests and small models; it makes no
// attempt at sparsity or factorization.
type Solver struct{}

// New returns a reference simplex solver.
func New() *Solver { return &Solver{} }

var _ solver.Solver = (*Solver)(nil)

// SolveLinear solves the bounded linear program with a two-phase dense
// simplex using Bland's rule. Variables must carry finite bounds.
func (s *Solver) SolveLinear(ctx context.Context, p solver.Problem) (solver.Solution, error) {
	if err := ctx.Err(); err != nil {
		return solver.Solution{}, err
	}
	return solveLP(p)
}

// SolveQuadratic minimizes the separable quadratic deviation objective with
// Frank-Wolfe iterations, each step solving a linearized subproblem through
// SolveLinear. The feasible region is a polytope and the objective is
// convex, so the iterates converge to the optimum; the loop stops when the
// linearization gap closes.
func (s *Solver) SolveQuadratic(ctx context.Context, p solver.Problem, terms []Deviation) (solver.Solution, error) {
	return solveQP(ctx, s, p, terms)
}

// Deviation aliases the solver package type for readability inside this
// package.
type Deviation = solver.Deviation

func solveLP(p solver.Problem) (solver.Solution, error) {
	n := len(p.Variables)
	idx := make(map[string]int, n)
	lower := make([]float64, n)
	span := make([]float64, n)
	for j, v := range p.Variables {
		if _, dup := idx[v.ID]; dup {
			return solver.Solution{}, fmt.Errorf("duplicate variable %s", v.ID)
		}
		if math.IsInf(v.Lower, 0) || math.IsInf(v.Upper, 0) {
			return solver.Solution{}, fmt.Errorf("variable %s: reference solver requires finite bounds", v.ID)
		}
		if v.Lower > v.Upper {
			return solver.Solution{Status: solver.StatusInfeasible}, nil
		}
		idx[v.ID] = j
		lower[j] = v.Lower
		span[j] = v.Upper - v.Lower
	}

	// Shifted variables x_j = v_j - lower_j live in [0, span_j]. Each
	// constraint row is rewritten over x; variable upper bounds become
	// explicit rows.
	type row struct {
		coeffs []float64
		rhs    float64
		sense  int // -1 <=, 0 ==, +1 >=
	}
	var rows []row
	addRow := func(coeffs []float64, rhs float64, sense int) {
		if rhs < 0 {
			neg := make([]float64, len(coeffs))
			for i, c := range coeffs {
				neg[i] = -c
			}
			coeffs, rhs, sense = neg, -rhs, -sense
		}
		rows = append(rows, row{coeffs: coeffs, rhs: rhs, sense: sense})
	}
	for _, c := range p.Constraints {
		coeffs := make([]float64, n)
		offset := 0.0
		for id, a := range c.Coefficients {
			j, ok := idx[id]
			if !ok {
				return solver.Solution{}, fmt.Errorf("constraint %s references unknown variable %s", c.Name, id)
			}
			coeffs[j] += a
			offset += a * lower[j]
		}
		if c.Lower == c.Upper {
			addRow(coeffs, c.Lower-offset, 0)
			continue
		}
		if !math.IsInf(c.Lower, -1) {
			addRow(append([]float64(nil), coeffs...), c.Lower-offset, 1)
		}
		if !math.IsInf(c.Upper, 1) {
			addRow(append([]float64(nil), coeffs...), c.Upper-offset, -1)
		}
	}
	for j := 0; j < n; j++ {
		coeffs := make([]float64, n)
		coeffs[j] = 1
		addRow(coeffs, span[j], -1)
	}

	m := len(rows)
	// Column layout: structural | slack/surplus | artificial.
	extra := 0
	for _, r := range rows {
		if r.sense != 0 {
			extra++
		}
	}
	artCount := 0
	for _, r := range rows {
		if r.sense >= 0 {
			artCount++
		}
	}
	total := n + extra + artCount
	t := &tableau{
		m:      m,
		n:      total,
		a:      make([][]float64, m),
		basis:  make([]int, m),
		banned: make([]bool, total),
	}
	slackCol := n
	artCol := n + extra
	firstArt := artCol
	for i, r := range rows {
		t.a[i] = make([]float64, total+1)
		copy(t.a[i], r.coeffs)
		t.a[i][total] = r.rhs
		switch r.sense {
		case -1:
			t.a[i][slackCol] = 1
			t.basis[i] = slackCol
			slackCol++
		case 1:
			t.a[i][slackCol] = -1
			slackCol++
			t.a[i][artCol] = 1
			t.basis[i] = artCol
			artCol++
		default:
			t.a[i][artCol] = 1
			t.basis[i] = artCol
			artCol++
		}
	}

	// Phase 1: drive the artificial variables to zero.
	if firstArt < total {
		phase1 := make([]float64, total)
		for j := firstArt; j < total; j++ {
			phase1[j] = 1
		}
		status, obj := t.run(phase1)
		if status != solver.StatusOptimal {
			return solver.Solution{}, fmt.Errorf("phase 1 simplex failed with status %s", status)
		}
		if obj > feasTol {
			return solver.Solution{Status: solver.StatusInfeasible}, nil
		}
		t.driveOutArtificials(firstArt)
		for j := firstArt; j < total; j++ {
			t.banned[j] = true
		}
	}

	// Phase 2: optimize the real objective over the shifted variables.
	cost := make([]float64, total)
	for id, c := range p.Objective {
		j, ok := idx[id]
		if !ok {
			return solver.Solution{}, fmt.Errorf("objective references unknown variable %s", id)
		}
		if p.Maximize {
			cost[j] = -c
		} else {
			cost[j] = c
		}
	}
	status, _ := t.run(cost)
	if status == solver.StatusUnbounded {
		return solver.Solution{Status: solver.StatusUnbounded}, nil
	}
	if status != solver.StatusOptimal {
		return solver.Solution{}, fmt.Errorf("phase 2 simplex failed with status %s", status)
	}

	values := make(map[string]float64, n)
	x := make([]float64, total)
	for i, b := range t.basis {
		x[b] = t.a[i][total]
	}
	objective := 0.0
	for id, j := range idx {
		v := x[j] + lower[j]
		values[id] = v
		objective += p.Objective[id] * v
	}
	return solver.Solution{Status: solver.StatusOptimal, Objective: objective, Values: values}, nil
}

// tableau is a dense simplex tableau with the rhs stored in the last column.
type tableau struct {
	m, n   int
	a      [][]float64
	basis  []int
	banned []bool
}

// run minimizes cost over the current basic feasible solution using Bland's
// rule and returns the reached status plus the objective value.
func (t *tableau) run(cost []float64) (solver.Status, float64) {
	// Reduced cost row, priced out against the current basis.
	z := make([]float64, t.n+1)
	copy(z, cost)
	for i, b := range t.basis {
		if cost[b] == 0 {
			continue
		}
		cb := cost[b]
		for j := 0; j <= t.n; j++ {
			z[j] -= cb * t.a[i][j]
		}
	}
	for iter := 0; iter < 10000; iter++ {
		enter := -1
		for j := 0; j < t.n; j++ {
			if !t.banned[j] && z[j] < -pivotTol {
				enter = j
				break
			}
		}
		if enter < 0 {
			return solver.StatusOptimal, -z[t.n]
		}
		leave := -1
		best := math.Inf(1)
		for i := 0; i < t.m; i++ {
			if t.a[i][enter] <= pivotTol {
				continue
			}
			ratio := t.a[i][t.n] / t.a[i][enter]
			if ratio < best-pivotTol || (ratio < best+pivotTol && (leave < 0 || t.basis[i] < t.basis[leave])) {
				best = ratio
				leave = i
			}
		}
		if leave < 0 {
			return solver.StatusUnbounded, 0
		}
		t.pivot(leave, enter, z)
	}
	return solver.StatusInfeasible, 0 // iteration limit; should not happen on well-posed inputs
}

func (t *tableau) pivot(r, c int, z []float64) {
	p := t.a[r][c]
	for j := 0; j <= t.n; j++ {
		t.a[r][j] /= p
	}
	for i := 0; i < t.m; i++ {
		if i == r || t.a[i][c] == 0 {
			continue
		}
		f := t.a[i][c]
		for j := 0; j <= t.n; j++ {
			t.a[i][j] -= f * t.a[r][j]
		}
	}
	if z[c] != 0 {
		f := z[c]
		for j := 0; j <= t.n; j++ {
			z[j] -= f * t.a[r][j]
		}
	}
	t.basis[r] = c
}

// driveOutArtificials pivots basic artificial variables (at value zero after
// phase 1) onto structural columns where possible; rows with no eligible
// pivot are redundant and keep their artificial basic at zero.
func (t *tableau) driveOutArtificials(firstArt int) {
	for i := 0; i < t.m; i++ {
		if t.basis[i] < firstArt {
			continue
		}
		for j := 0; j < firstArt; j++ {
			if math.Abs(t.a[i][j]) > pivotTol {
				z := make([]float64, t.n+1)
				t.pivot(i, j, z)
				break
			}
		}
	}
}

func solveQP(ctx context.Context, lin *Solver, p solver.Problem, terms []Deviation) (solver.Solution, error) {
	if len(terms) == 0 {
		return solver.Solution{}, fmt.Errorf("quadratic solve requires at least one deviation term")
	}
	start := p
	start.Objective = nil
	start.Maximize = false
	sol, err := lin.SolveLinear(ctx, start)
	if err != nil {
		return solver.Solution{}, err
	}
	if sol.Status != solver.StatusOptimal {
		return solver.Solution{Status: sol.Status}, nil
	}
	x := sol.Values

	quadObjective := func(v map[string]float64) float64 {
		total := 0.0
		for _, term := range terms {
			d := v[term.Variable] - term.Target
			total += term.Weight * d * d
		}
		return total
	}

	for iter := 0; iter < 256; iter++ {
		if err := ctx.Err(); err != nil {
			return solver.Solution{}, err
		}
		grad := make(map[string]float64, len(terms))
		for _, term := range terms {
			grad[term.Variable] += 2 * term.Weight * (x[term.Variable] - term.Target)
		}
		sub := p
		sub.Objective = grad
		sub.Maximize = false
		vertex, err := lin.SolveLinear(ctx, sub)
		if err != nil {
			return solver.Solution{}, err
		}
		if vertex.Status != solver.StatusOptimal {
			return solver.Solution{Status: vertex.Status}, nil
		}
		gap := 0.0
		for id, g := range grad {
			gap += g * (vertex.Values[id] - x[id])
		}
		if gap >= -1e-9 {
			break
		}
		denom := 0.0
		for _, term := range terms {
			d := vertex.Values[term.Variable] - x[term.Variable]
			denom += 2 * term.Weight * d * d
		}
		gamma := 1.0
		if denom > pivotTol {
			gamma = math.Min(1, -gap/denom)
		}
		for id, v := range vertex.Values {
			x[id] += gamma * (v - x[id])
		}
	}
	return solver.Solution{Status: solver.StatusOptimal, Objective: quadObjective(x), Values: x}, nil
}
