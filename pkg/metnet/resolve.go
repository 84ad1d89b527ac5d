package metnet

import "strings"

// FindReaction searches the model for a reaction matching the query id,
// either against the reaction's own id or against its annotation entries
// under the given namespace. All comparisons are case-insensitive. Exactly
// one match is returned; zero matches fail with NotFoundError and multiple
// matches fail with AmbiguousMatchError.
func FindReaction(m *Model, queryID, namespace string) (*Reaction, error) {
	var matches []*Reaction
	for _, r := range m.reactions {
		if matchEntity(r.ID, r.Annotation, queryID, namespace) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, NotFoundError{Kind: KindReaction, ID: queryID, Namespace: namespace}
	case 1:
		return matches[0], nil
	default:
		return nil, AmbiguousMatchError{Kind: KindReaction, ID: queryID, Matches: reactionIDs(matches)}
	}
}

// FindMetabolite searches the model for a metabolite in the given
// compartment matching the query id, either against the metabolite's own id
// or its annotation entries under the given namespace. If the plain query
// finds nothing the search is retried once with the compartment suffix
// appended ("o2" becomes "o2_e"), the common convention for
// compartmentalised external identifiers.
func FindMetabolite(m *Model, queryID, namespace, compartment string) (*Metabolite, error) {
	matches := findMetabolites(m, queryID, namespace, compartment)
	if len(matches) == 0 {
		matches = findMetabolites(m, queryID+"_"+compartment, namespace, compartment)
	}
	switch len(matches) {
	case 0:
		return nil, NotFoundError{Kind: KindMetabolite, ID: queryID, Namespace: namespace}
	case 1:
		return matches[0], nil
	default:
		return nil, AmbiguousMatchError{Kind: KindMetabolite, ID: queryID, Matches: metaboliteIDs(matches)}
	}
}

func findMetabolites(m *Model, queryID, namespace, compartment string) []*Metabolite {
	var matches []*Metabolite
	for _, met := range m.metabolites {
		if met.Compartment != compartment {
			continue
		}
		if matchEntity(met.ID, met.Annotation, queryID, namespace) {
			matches = append(matches, met)
		}
	}
	return matches
}

// matchEntity implements the shared resolution predicate: the entity's own
// id wins regardless of namespace, otherwise the annotation entry under the
// queried namespace is compared, scalar or list.
func matchEntity(entityID string, annotation Annotation, queryID, namespace string) bool {
	if strings.EqualFold(entityID, queryID) {
		return true
	}
	for ns, ids := range annotation {
		if !strings.EqualFold(ns, namespace) {
			continue
		}
		for _, id := range ids {
			if strings.EqualFold(id, queryID) {
				return true
			}
		}
	}
	return false
}

func reactionIDs(rs []*Reaction) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func metaboliteIDs(ms []*Metabolite) []string {
	out := make([]string, len(ms))
	for i, met := range ms {
		out[i] = met.ID
	}
	return out
}
