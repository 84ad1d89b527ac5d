package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fluxcore/pkg/ops"
)

// groupDelimiter joins genes that must be removed together by a single
// perturbation token (operon-style knockouts).
const groupDelimiter = ":"

// FromGenotype translates genetic perturbation tokens into operations.
// Tokens take the form "-gene" (knockout; several genes may be joined with
// ":" and are removed together or not at all) or "+part" (insertion; the
// part's reaction equations are added in sorted id order). Tokens that fail
// external resolution become per-item issues.
func FromGenotype(ctx context.Context, parts PartsLookup, genotype []string) ([]ops.Operation, []Issue) {
	var operations []ops.Operation
	var issues []Issue

	for _, token := range genotype {
		if len(token) < 2 || (token[0] != '+' && token[0] != '-') {
			issues = append(issues, Issue{ID: token, Message: fmt.Sprintf("genotype token %q must start with '+' or '-'", token)})
			continue
		}
		name := token[1:]
		if token[0] == '-' {
			group, err := resolveGroup(ctx, parts, name)
			if err != nil {
				issues = append(issues, issuef(token, err))
				continue
			}
			for _, geneID := range group {
				operations = append(operations, ops.KnockoutGene(geneID))
			}
			continue
		}
		equations, err := parts.ReactionEquations(ctx, name)
		if err != nil {
			issues = append(issues, issuef(token, err))
			continue
		}
		for _, reactionID := range sortedKeys(equations) {
			eq := equations[reactionID]
			operations = append(operations, ops.AddReaction(reactionID, ops.ReactionData{
				Name:        eq.Name,
				Metabolites: eq.Metabolites,
				LowerBound:  eq.LowerBound,
				UpperBound:  eq.UpperBound,
				GeneRule:    eq.GeneRule,
			}))
		}
	}
	return operations, issues
}

// resolveGroup resolves every gene in a ":"-joined removal group; a single
// failure fails the whole group so partial operon knockouts are never
// emitted.
func resolveGroup(ctx context.Context, parts PartsLookup, name string) ([]string, error) {
	tokens := strings.Split(name, groupDelimiter)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		geneID, err := parts.ResolveGene(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("gene %s: %w", tok, err)
		}
		out = append(out, geneID)
	}
	return out, nil
}

func sortedKeys(m map[string]ReactionEquation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
