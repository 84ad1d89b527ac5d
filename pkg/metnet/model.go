// Package metnet defines the in-memory representation of genome-scale
// metabolic network models: reactions and metabolites joined by
// stoichiometric coefficients, genes linked to reactions through boolean
// gene-reaction rules, per-reaction flux bounds and a distinguished
// objective reaction. The canonical instance of a model is owned by the
// model store and treated as read-only; every pipeline entry point works on
// a private Copy.
package metnet

import (
	"encoding/json"
	"strings"
)

// DefaultBound is the conventional magnitude for an effectively
// unconstrained flux bound.
const DefaultBound = 1000.0

// IDList holds one or more external identifiers registered under a single
// annotation namespace. Model documents encode a single identifier as a bare
// string and multiple identifiers as an array; IDList accepts both.
type IDList []string

// UnmarshalJSON accepts either a scalar identifier or a list of identifiers.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = IDList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = IDList(many)
	return nil
}

// MarshalJSON emits a scalar for a single identifier and an array otherwise,
// preserving the conventional document shape.
func (l IDList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]string(l))
}

// Annotation maps a namespace name to the external identifiers an entity
// carries in that namespace. Namespace comparison is case-insensitive at
// resolution time; the stored casing is preserved.
type Annotation map[string]IDList

func (a Annotation) clone() Annotation {
	if a == nil {
		return nil
	}
	out := make(Annotation, len(a))
	for ns, ids := range a {
		out[ns] = append(IDList(nil), ids...)
	}
	return out
}

// Metabolite is a chemical species located in a single compartment.
type Metabolite struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Compartment string     `json:"compartment"`
	Formula     string     `json:"formula,omitempty"`
	Annotation  Annotation `json:"annotation,omitempty"`
}

// Reaction converts a set of substrate metabolites into a set of product
// metabolites at a solved flux within [LowerBound, UpperBound].
type Reaction struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name,omitempty"`
	Metabolites          map[string]float64 `json:"metabolites"`
	LowerBound           float64            `json:"lower_bound"`
	UpperBound           float64            `json:"upper_bound"`
	GeneRule             string             `json:"gene_reaction_rule,omitempty"`
	ObjectiveCoefficient float64            `json:"objective_coefficient,omitempty"`
	Annotation           Annotation         `json:"annotation,omitempty"`
}

// Bounds returns the reaction's flux bounds.
func (r *Reaction) Bounds() (lower, upper float64) {
	return r.LowerBound, r.UpperBound
}

// IsExchange reports whether the reaction moves a single metabolite across
// the system boundary (the conventional shape of an exchange reaction).
func (r *Reaction) IsExchange() bool {
	return len(r.Metabolites) == 1
}

func (r *Reaction) clone() *Reaction {
	cp := *r
	cp.Metabolites = make(map[string]float64, len(r.Metabolites))
	for id, coeff := range r.Metabolites {
		cp.Metabolites[id] = coeff
	}
	cp.Annotation = r.Annotation.clone()
	return &cp
}

// Gene participates in gene-reaction rules. A knocked-out gene no longer
// satisfies the rules that require it.
type Gene struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Annotation Annotation `json:"annotation,omitempty"`

	knockedOut bool
}

// KnockedOut reports whether the gene has been knocked out on this model.
func (g *Gene) KnockedOut() bool { return g.knockedOut }

// Model is a mutable metabolic network. Entity order is stable: reactions,
// metabolites and genes iterate in insertion order, which keeps derived
// operation sequences deterministic.
type Model struct {
	ID           string
	Name         string
	Compartments map[string]string

	reactions     []*Reaction
	reactionIdx   map[string]int
	metabolites   []*Metabolite
	metaboliteIdx map[string]int
	genes         []*Gene
	geneIdx       map[string]int
}

// NewModel constructs an empty model with the given id.
func NewModel(id string) *Model {
	return &Model{
		ID:            id,
		Compartments:  make(map[string]string),
		reactionIdx:   make(map[string]int),
		metaboliteIdx: make(map[string]int),
		geneIdx:       make(map[string]int),
	}
}

// Reactions returns the model's reactions in stable insertion order. The
// returned slice must not be modified.
func (m *Model) Reactions() []*Reaction { return m.reactions }

// Metabolites returns the model's metabolites in stable insertion order.
func (m *Model) Metabolites() []*Metabolite { return m.metabolites }

// Genes returns the model's genes in stable insertion order.
func (m *Model) Genes() []*Gene { return m.genes }

// Reaction looks a reaction up by exact id.
func (m *Model) Reaction(id string) (*Reaction, bool) {
	i, ok := m.reactionIdx[id]
	if !ok {
		return nil, false
	}
	return m.reactions[i], true
}

// Metabolite looks a metabolite up by exact id.
func (m *Model) Metabolite(id string) (*Metabolite, bool) {
	i, ok := m.metaboliteIdx[id]
	if !ok {
		return nil, false
	}
	return m.metabolites[i], true
}

// Gene looks a gene up by exact id.
func (m *Model) Gene(id string) (*Gene, bool) {
	i, ok := m.geneIdx[id]
	if !ok {
		return nil, false
	}
	return m.genes[i], true
}

// AddMetabolite inserts a metabolite, failing on duplicate ids.
func (m *Model) AddMetabolite(met *Metabolite) error {
	if _, ok := m.metaboliteIdx[met.ID]; ok {
		return DuplicateIDError{Kind: KindMetabolite, ID: met.ID}
	}
	m.metaboliteIdx[met.ID] = len(m.metabolites)
	m.metabolites = append(m.metabolites, met)
	return nil
}

// AddGene inserts a gene, failing on duplicate ids.
func (m *Model) AddGene(gene *Gene) error {
	if _, ok := m.geneIdx[gene.ID]; ok {
		return DuplicateIDError{Kind: KindGene, ID: gene.ID}
	}
	m.geneIdx[gene.ID] = len(m.genes)
	m.genes = append(m.genes, gene)
	return nil
}

// AddReaction inserts a reaction, failing with a DuplicateIDError when a
// reaction with the same id exists. Metabolites referenced by the
// stoichiometry but absent from the model are created as placeholders (the
// compartment is inferred from the conventional id suffix), and genes named
// by the gene rule are registered, so the model invariant that reactions
// only reference known entities holds after every insert.
func (m *Model) AddReaction(r *Reaction) error {
	if _, ok := m.reactionIdx[r.ID]; ok {
		return DuplicateIDError{Kind: KindReaction, ID: r.ID}
	}
	for metID := range r.Metabolites {
		if _, ok := m.metaboliteIdx[metID]; !ok {
			if err := m.AddMetabolite(&Metabolite{ID: metID, Compartment: compartmentSuffix(metID)}); err != nil {
				return err
			}
		}
	}
	if r.GeneRule != "" {
		rule, err := ParseGeneRule(r.GeneRule)
		if err != nil {
			return InvalidInputError{Reason: "reaction " + r.ID + ": " + err.Error()}
		}
		for _, geneID := range rule.Genes() {
			if _, ok := m.geneIdx[geneID]; !ok {
				if err := m.AddGene(&Gene{ID: geneID}); err != nil {
					return err
				}
			}
		}
	}
	m.reactionIdx[r.ID] = len(m.reactions)
	m.reactions = append(m.reactions, r)
	return nil
}

func compartmentSuffix(metID string) string {
	if i := strings.LastIndex(metID, "_"); i >= 0 && i < len(metID)-1 {
		return metID[i+1:]
	}
	return ""
}

// SetBounds replaces a reaction's flux bounds. No lower <= upper validation
// is performed; callers own that invariant.
func (m *Model) SetBounds(reactionID string, lower, upper float64) error {
	r, ok := m.Reaction(reactionID)
	if !ok {
		return NotFoundError{Kind: KindReaction, ID: reactionID}
	}
	r.LowerBound = lower
	r.UpperBound = upper
	return nil
}

// KnockoutReaction forces a reaction's flux to zero.
func (m *Model) KnockoutReaction(reactionID string) error {
	return m.SetBounds(reactionID, 0, 0)
}

// KnockoutGene marks a gene as knocked out and closes every reaction whose
// gene rule is no longer satisfiable given all knockouts applied so far.
// Lookup is by id first, then by name; on either path the first match in
// stable insertion order wins, which makes duplicate names deterministic.
func (m *Model) KnockoutGene(geneID string) error {
	gene := m.findGene(geneID)
	if gene == nil {
		return NotFoundError{Kind: KindGene, ID: geneID}
	}
	gene.knockedOut = true
	active := m.activeGenes()
	for _, r := range m.reactions {
		if r.GeneRule == "" {
			continue
		}
		rule, err := ParseGeneRule(r.GeneRule)
		if err != nil {
			return InvalidInputError{Reason: "reaction " + r.ID + ": " + err.Error()}
		}
		if !rule.Eval(active) {
			r.LowerBound = 0
			r.UpperBound = 0
		}
	}
	return nil
}

func (m *Model) findGene(id string) *Gene {
	for _, g := range m.genes {
		if g.ID == id {
			return g
		}
	}
	for _, g := range m.genes {
		if g.Name == id {
			return g
		}
	}
	return nil
}

func (m *Model) activeGenes() map[string]bool {
	active := make(map[string]bool, len(m.genes))
	for _, g := range m.genes {
		active[g.ID] = !g.knockedOut
	}
	return active
}

// SetObjective makes the given reaction the sole optimization objective.
func (m *Model) SetObjective(reactionID string) error {
	target, ok := m.Reaction(reactionID)
	if !ok {
		return NotFoundError{Kind: KindReaction, ID: reactionID}
	}
	for _, r := range m.reactions {
		r.ObjectiveCoefficient = 0
	}
	target.ObjectiveCoefficient = 1
	return nil
}

// Objective returns the reaction(s) carrying a non-zero objective
// coefficient, in stable order.
func (m *Model) Objective() []*Reaction {
	var out []*Reaction
	for _, r := range m.reactions {
		if r.ObjectiveCoefficient != 0 {
			out = append(out, r)
		}
	}
	return out
}

// Exchanges returns the model's exchange reactions in stable order.
func (m *Model) Exchanges() []*Reaction {
	var out []*Reaction
	for _, r := range m.reactions {
		if r.IsExchange() {
			out = append(out, r)
		}
	}
	return out
}

// ExchangeFor returns the exchange reaction that moves the given metabolite
// across the system boundary. The first exchange in stable order wins when
// the model declares more than one.
func (m *Model) ExchangeFor(metaboliteID string) (*Reaction, error) {
	for _, r := range m.reactions {
		if !r.IsExchange() {
			continue
		}
		if _, ok := r.Metabolites[metaboliteID]; ok {
			return r, nil
		}
	}
	return nil, NotFoundError{Kind: KindReaction, ID: "EX(" + metaboliteID + ")"}
}

// Copy returns a full structural copy sharing no mutable state with the
// receiver. This is the copy-on-use boundary: the cost is proportional to
// model size and every concurrent caller pays it.
func (m *Model) Copy() *Model {
	cp := NewModel(m.ID)
	cp.Name = m.Name
	for id, name := range m.Compartments {
		cp.Compartments[id] = name
	}
	cp.metabolites = make([]*Metabolite, len(m.metabolites))
	for i, met := range m.metabolites {
		metCopy := *met
		metCopy.Annotation = met.Annotation.clone()
		cp.metabolites[i] = &metCopy
		cp.metaboliteIdx[met.ID] = i
	}
	cp.reactions = make([]*Reaction, len(m.reactions))
	for i, r := range m.reactions {
		cp.reactions[i] = r.clone()
		cp.reactionIdx[r.ID] = i
	}
	cp.genes = make([]*Gene, len(m.genes))
	for i, g := range m.genes {
		geneCopy := *g
		geneCopy.Annotation = g.Annotation.clone()
		cp.genes[i] = &geneCopy
		cp.geneIdx[g.ID] = i
	}
	return cp
}
