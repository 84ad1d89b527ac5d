package adapter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"fluxcore/internal/fixture"
	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

func TestFromMediumOpensListedAndClosesRest(t *testing.T) {
	m := fixture.Model()
	medium := []Compound{
		{ID: "CHEBI:17634", Namespace: "CHEBI"}, // glucose
		{ID: "o2", Namespace: "bigg.metabolite"},
	}
	operations, issues := FromMedium(m, medium)
	if len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}

	bounds := map[string][2]float64{}
	for _, op := range operations {
		bounds[op.ID] = [2]float64{op.Data.LowerBound, op.Data.UpperBound}
	}
	if got := bounds[fixture.GlucoseExchange]; got[0] != -metnet.DefaultBound {
		t.Errorf("glucose uptake not opened: %v", got)
	}
	if got := bounds[fixture.OxygenExchange]; got[0] != -metnet.DefaultBound {
		t.Errorf("oxygen uptake not opened: %v", got)
	}
	// The medium is exhaustive: every unlisted exchange is closed for
	// uptake but keeps its secretion bound.
	for _, ex := range []string{fixture.EthanolExchange, fixture.AcetateExchange, fixture.FormateExchange} {
		got, ok := bounds[ex]
		if !ok {
			t.Errorf("exchange %s missing from medium operations", ex)
			continue
		}
		if got[0] != 0 || got[1] != metnet.DefaultBound {
			t.Errorf("exchange %s bounds = %v, want (0, %g)", ex, got, metnet.DefaultBound)
		}
	}
	if len(operations) != len(m.Exchanges()) {
		t.Errorf("operation count = %d, want one per exchange (%d)", len(operations), len(m.Exchanges()))
	}
}

func TestFromMediumDeterministic(t *testing.T) {
	medium := []Compound{
		{ID: "glc__D", Namespace: "bigg.metabolite"},
		{ID: "o2", Namespace: "bigg.metabolite"},
	}
	first, _ := FromMedium(fixture.Model(), medium)
	second, _ := FromMedium(fixture.Model(), medium)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("derivation not deterministic (-first +second):\n%s", diff)
	}
}

func TestFromMediumIdempotentAfterApply(t *testing.T) {
	m := fixture.Model()
	medium := []Compound{{ID: "glc__D", Namespace: "bigg.metabolite"}}

	first, _ := FromMedium(m, medium)
	if err := ops.Apply(m, first); err != nil {
		t.Fatalf("apply: %v", err)
	}
	second, _ := FromMedium(m, medium)
	if err := ops.Apply(m, second); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("medium derivation changed after its own application (-first +second):\n%s", diff)
	}
}

func TestFromMediumUnresolvableCompound(t *testing.T) {
	m := fixture.Model()
	operations, issues := FromMedium(m, []Compound{
		{ID: "CHEBI:99999", Namespace: "CHEBI"},
		{ID: "o2", Namespace: "bigg.metabolite"},
	})
	if len(issues) != 1 || issues[0].ID != "CHEBI:99999" {
		t.Fatalf("issues = %v, want one for CHEBI:99999", issues)
	}
	// The resolvable compound still produced operations; the failed one's
	// exchange stays closed.
	var glucoseLower float64
	for _, op := range operations {
		if op.ID == fixture.GlucoseExchange {
			glucoseLower = op.Data.LowerBound
		}
	}
	if glucoseLower != 0 {
		t.Errorf("unlisted glucose exchange lower bound = %g, want 0", glucoseLower)
	}
}

func TestFromMediumDuplicateCompound(t *testing.T) {
	m := fixture.Model()
	operations, issues := FromMedium(m, []Compound{
		{ID: "glc__D", Namespace: "bigg.metabolite"},
		{ID: "CHEBI:17634", Namespace: "CHEBI"}, // same metabolite again
	})
	if len(issues) != 0 {
		t.Fatalf("issues = %v", issues)
	}
	opens := 0
	for _, op := range operations {
		if op.ID == fixture.GlucoseExchange {
			opens++
		}
	}
	if opens != 1 {
		t.Errorf("glucose exchange touched %d times, want 1", opens)
	}
}
