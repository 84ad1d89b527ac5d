package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"fluxcore/internal/fixture"
	"fluxcore/internal/solver/simplex"
	"fluxcore/pkg/metnet"
	"fluxcore/pkg/solver"
)

const tol = 1e-6

// captureRecorder records every metrics call so tests can assert the engine
// reports what it ran.
type captureRecorder struct {
	method, status string
	calls          int
}

func (c *captureRecorder) ObserveSimulation(method, status string, _ time.Duration) {
	c.method, c.status = method, status
	c.calls++
}
func (c *captureRecorder) ObserveAdapter(string, int) {}
func (c *captureRecorder) IncDeltaSave(string)        {}

func newEngine() *Engine { return New(simplex.New(), nil) }

func TestSimulateFBA(t *testing.T) {
	m := fixture.Model()
	if err := m.SetBounds(fixture.GlucoseExchange, -9, -9); err != nil {
		t.Fatalf("set bounds: %v", err)
	}
	result, err := newEngine().Simulate(context.Background(), m, fixture.Biomass, Options{Method: MethodFBA})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if result.Status != solver.StatusOptimal {
		t.Fatalf("status = %s", result.Status)
	}
	if math.Abs(result.Fluxes[fixture.GlucoseExchange]+9) > tol {
		t.Errorf("glucose exchange flux = %g, want -9", result.Fluxes[fixture.GlucoseExchange])
	}
	if math.Abs(result.GrowthRate-9) > tol {
		t.Errorf("growth rate = %g, want 9", result.GrowthRate)
	}
}

func TestSimulateDefaults(t *testing.T) {
	rec := &captureRecorder{}
	engine := New(simplex.New(), rec)
	result, err := engine.Simulate(context.Background(), fixture.Model(), fixture.Biomass, Options{})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	// Growth is limited only by the glucose uptake bound.
	if math.Abs(result.GrowthRate-10) > tol {
		t.Errorf("growth rate = %g, want 10", result.GrowthRate)
	}
	if rec.method != "fba" || rec.status != "optimal" || rec.calls != 1 {
		t.Errorf("recorded %s/%s over %d calls", rec.method, rec.status, rec.calls)
	}
}

func TestSimulatePFBAMatchesFBAOptimum(t *testing.T) {
	engine := newEngine()
	ctx := context.Background()

	fba, err := engine.Simulate(ctx, fixture.Model(), fixture.Biomass, Options{Method: MethodFBA})
	if err != nil {
		t.Fatalf("fba: %v", err)
	}
	pfba, err := engine.Simulate(ctx, fixture.Model(), fixture.Biomass, Options{Method: MethodPFBA})
	if err != nil {
		t.Fatalf("pfba: %v", err)
	}
	if pfba.Status != solver.StatusOptimal {
		t.Fatalf("pfba status = %s", pfba.Status)
	}
	if math.Abs(pfba.GrowthRate-fba.GrowthRate) > tol {
		t.Errorf("pfba growth = %g, fba optimum = %g", pfba.GrowthRate, fba.GrowthRate)
	}
	if total := totalAbsoluteFlux(pfba.Fluxes); total > totalAbsoluteFlux(fba.Fluxes)+tol {
		t.Errorf("pfba total |flux| = %g exceeds fba's %g", total, totalAbsoluteFlux(fba.Fluxes))
	}
	// The acetate branch contributes nothing to growth; parsimony zeroes it.
	if v := pfba.Fluxes[fixture.Phosphotrans]; math.Abs(v) > tol {
		t.Errorf("phosphotransacetylase flux = %g, want 0", v)
	}
}

func totalAbsoluteFlux(fluxes map[string]float64) float64 {
	total := 0.0
	for _, v := range fluxes {
		total += math.Abs(v)
	}
	return total
}

func TestSimulateObjectiveOverride(t *testing.T) {
	result, err := newEngine().Simulate(context.Background(), fixture.Model(), fixture.Biomass, Options{
		Objective: fixture.AcetateExchange,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if math.Abs(result.GrowthRate-10) > tol {
		t.Errorf("acetate secretion optimum = %g, want 10", result.GrowthRate)
	}
	if math.Abs(result.Fluxes[fixture.AcetateExchange]-10) > tol {
		t.Errorf("acetate exchange flux = %g, want 10", result.Fluxes[fixture.AcetateExchange])
	}
}

func TestSimulateMinimize(t *testing.T) {
	result, err := newEngine().Simulate(context.Background(), fixture.Model(), fixture.Biomass, Options{
		Direction: DirectionMinimize,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if math.Abs(result.GrowthRate) > tol {
		t.Errorf("minimized growth = %g, want 0", result.GrowthRate)
	}
}

func TestSimulateInfeasibleIsAResult(t *testing.T) {
	m := fixture.Model()
	// Force glucose uptake while closing the only transporter.
	if err := m.SetBounds(fixture.GlucoseExchange, -9, -9); err != nil {
		t.Fatalf("set bounds: %v", err)
	}
	if err := m.SetBounds("GLCt", 0, 0); err != nil {
		t.Fatalf("set bounds: %v", err)
	}
	rec := &captureRecorder{}
	result, err := New(simplex.New(), rec).Simulate(context.Background(), m, fixture.Biomass, Options{})
	if err != nil {
		t.Fatalf("infeasible model returned error: %v", err)
	}
	if result.Status != solver.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", result.Status)
	}
	if len(result.Fluxes) != 0 {
		t.Errorf("infeasible result carries fluxes")
	}
	if rec.status != "infeasible" {
		t.Errorf("recorded status = %s", rec.status)
	}
}

func TestSimulateUnknownMethod(t *testing.T) {
	_, err := newEngine().Simulate(context.Background(), fixture.Model(), fixture.Biomass, Options{Method: "moma"})
	var invalid metnet.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("unknown method returned %v, want InvalidInputError", err)
	}
}

func TestSimulateUnknownObjective(t *testing.T) {
	_, err := newEngine().Simulate(context.Background(), fixture.Model(), "GHOST", Options{})
	if !metnet.IsNotFound(err) {
		t.Fatalf("unknown objective returned %v, want NotFoundError", err)
	}
}
