package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/solver"
)

// ProteomicsEntry is a measured protein abundance. The identifier names a
// gene (by id or annotation); the mean of the sampled values caps the
// absolute flux of every reaction whose gene rule mentions that gene.
type ProteomicsEntry struct {
	Identifier   string    `json:"identifier"`
	Measurements []float64 `json:"measurements"`
}

// Mean returns the arithmetic mean of the sampled abundances.
func (p ProteomicsEntry) Mean() float64 {
	if len(p.Measurements) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range p.Measurements {
		sum += v
	}
	return sum / float64(len(p.Measurements))
}

// ExchangeRate is an auxiliary uptake or secretion rate applied alongside
// proteomics: the named extracellular compound's exchange flux is pinned
// at the rate (negative means uptake).
type ExchangeRate struct {
	ID        string  `json:"id"`
	Namespace string  `json:"namespace"`
	Rate      float64 `json:"rate"`
}

// FlexResult is the outcome of a flexibilization search.
type FlexResult struct {
	// Status of the final solve; callers must check it, since exhausting
	// the proteomics set can leave the model infeasible.
	Status solver.Status `json:"status"`
	// GrowthRate achieved by the final solve (meaningless unless optimal).
	GrowthRate float64 `json:"growth_rate"`
	// Proteomics is the surviving constraint set, never larger than the
	// input set.
	Proteomics []ProteomicsEntry `json:"proteomics"`
	// Warnings records each removed entry.
	Warnings []string `json:"warnings,omitempty"`
}

// bindingTolerance decides when a solved flux sits on its proteomics cap.
const bindingTolerance = 1e-6

// FlexibilizeProteomics searches for the smallest proteomics relaxation
// that makes the target growth rate feasible. It constrains the model with
// the exchange rates and all proteomics caps, then repeatedly drops the
// most restrictive remaining entry until the target is met or the set is
// exhausted, warning per removal. If any exchange rate identifier fails to
// resolve the search is skipped entirely: the input proteomics set comes
// back unchanged with zero warnings. The model is treated as read-only;
// each iteration works on a fresh copy.
func (e *Engine) FlexibilizeProteomics(ctx context.Context, m *metnet.Model, objectiveReaction string, targetGrowth float64, proteomics []ProteomicsEntry, rates []ExchangeRate) (FlexResult, error) {
	exchanges, err := resolveExchangeRates(m, rates)
	if err != nil {
		result, simErr := e.Simulate(ctx, m.Copy(), objectiveReaction, Options{Method: MethodFBA})
		if simErr != nil {
			return FlexResult{}, simErr
		}
		return FlexResult{
			Status:     result.Status,
			GrowthRate: result.GrowthRate,
			Proteomics: proteomics,
		}, nil
	}

	remaining := append([]ProteomicsEntry(nil), proteomics...)
	var warnings []string
	for {
		constrained := m.Copy()
		for reactionID, rate := range exchanges {
			if err := constrained.SetBounds(reactionID, rate, rate); err != nil {
				return FlexResult{}, err
			}
		}
		caps, err := applyProteomics(constrained, remaining)
		if err != nil {
			return FlexResult{}, err
		}

		result, err := e.Simulate(ctx, constrained, objectiveReaction, Options{Method: MethodFBA})
		if err != nil {
			return FlexResult{}, err
		}
		if result.Status == solver.StatusOptimal && result.GrowthRate >= targetGrowth-bindingTolerance {
			return FlexResult{Status: result.Status, GrowthRate: result.GrowthRate, Proteomics: remaining, Warnings: warnings}, nil
		}
		if len(remaining) == 0 {
			return FlexResult{Status: result.Status, GrowthRate: result.GrowthRate, Proteomics: remaining, Warnings: warnings}, nil
		}

		drop := mostRestrictive(remaining, caps, result)
		entry := remaining[drop]
		remaining = append(remaining[:drop], remaining[drop+1:]...)
		warnings = append(warnings, fmt.Sprintf("removed proteomics constraint %s (abundance %g)", entry.Identifier, entry.Mean()))
	}
}

// resolveExchangeRates maps each rate to its exchange reaction id. Any
// resolution failure aborts the whole mapping.
func resolveExchangeRates(m *metnet.Model, rates []ExchangeRate) (map[string]float64, error) {
	out := make(map[string]float64, len(rates))
	for _, rate := range rates {
		met, err := metnet.FindMetabolite(m, rate.ID, rate.Namespace, "e")
		if err != nil {
			return nil, err
		}
		exchange, err := m.ExchangeFor(met.ID)
		if err != nil {
			return nil, err
		}
		out[exchange.ID] = rate.Rate
	}
	return out, nil
}

// appliedCap records which reactions one proteomics entry tightened and to
// what magnitude.
type appliedCap struct {
	cap       float64
	reactions []string
}

// applyProteomics tightens reaction bounds to the per-entry abundance cap.
// Entries whose identifier matches no gene constrain nothing and are kept;
// they can never be the binding constraint.
func applyProteomics(m *metnet.Model, entries []ProteomicsEntry) (map[string]appliedCap, error) {
	caps := make(map[string]appliedCap, len(entries))
	for _, entry := range entries {
		gene := resolveGene(m, entry.Identifier)
		if gene == nil {
			continue
		}
		limit := math.Max(entry.Mean(), 0)
		applied := appliedCap{cap: limit}
		for _, r := range m.Reactions() {
			if r.GeneRule == "" {
				continue
			}
			rule, err := metnet.ParseGeneRule(r.GeneRule)
			if err != nil {
				return nil, metnet.InvalidInputError{Reason: "reaction " + r.ID + ": " + err.Error()}
			}
			if !ruleMentions(rule, gene.ID) {
				continue
			}
			if err := m.SetBounds(r.ID, math.Max(r.LowerBound, -limit), math.Min(r.UpperBound, limit)); err != nil {
				return nil, err
			}
			applied.reactions = append(applied.reactions, r.ID)
		}
		if len(applied.reactions) > 0 {
			caps[entry.Identifier] = applied
		}
	}
	return caps, nil
}

func resolveGene(m *metnet.Model, identifier string) *metnet.Gene {
	if g, ok := m.Gene(identifier); ok {
		return g
	}
	for _, g := range m.Genes() {
		if g.Name == identifier {
			return g
		}
	}
	for _, g := range m.Genes() {
		for _, ids := range g.Annotation {
			for _, id := range ids {
				if id == identifier {
					return g
				}
			}
		}
	}
	return nil
}

func ruleMentions(rule metnet.GeneRule, geneID string) bool {
	for _, id := range rule.Genes() {
		if id == geneID {
			return true
		}
	}
	return false
}

// mostRestrictive ranks the remaining entries and returns the index of the
// one to drop. When the last solve produced fluxes, entries whose capped
// reaction sits on its cap (binding) are preferred, tightest cap first;
// otherwise the tightest cap overall is dropped. Entries that constrained
// nothing are never selected while a constraining entry remains.
func mostRestrictive(entries []ProteomicsEntry, caps map[string]appliedCap, last Result) int {
	type candidate struct {
		index   int
		cap     float64
		binding bool
		applied bool
	}
	candidates := make([]candidate, len(entries))
	for i, entry := range entries {
		c := candidate{index: i, cap: math.Inf(1)}
		if applied, ok := caps[entry.Identifier]; ok {
			c.applied = true
			c.cap = applied.cap
			for _, reactionID := range applied.reactions {
				if v, ok := last.Fluxes[reactionID]; ok && math.Abs(math.Abs(v)-applied.cap) <= bindingTolerance {
					c.binding = true
				}
			}
		}
		candidates[i] = c
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.applied != b.applied {
			return a.applied
		}
		if a.binding != b.binding {
			return a.binding
		}
		return a.cap < b.cap
	})
	return candidates[0].index
}
