package metnet

import (
	"encoding/json"
	"fmt"
)

// Document is the serialized model shape used on the wire and in the model
// store: flat arrays of metabolites, reactions and genes plus a compartment
// table. It mirrors the conventional JSON layout of constraint-based model
// exchanges so externally produced models load without translation.
type Document struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Compartments map[string]string `json:"compartments,omitempty"`
	Metabolites  []*Metabolite     `json:"metabolites"`
	Reactions    []*Reaction       `json:"reactions"`
	Genes        []*Gene           `json:"genes,omitempty"`
}

// DecodeDocument parses a serialized model document and assembles a Model
// from it. Genes are registered before reactions so gene rules resolve
// against declared genes rather than placeholders.
func DecodeDocument(data []byte) (*Model, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode model document: %w", err)
	}
	return FromDocument(&doc)
}

// FromDocument assembles a Model from an already-parsed document.
func FromDocument(doc *Document) (*Model, error) {
	m := NewModel(doc.ID)
	m.Name = doc.Name
	for id, name := range doc.Compartments {
		m.Compartments[id] = name
	}
	for _, met := range doc.Metabolites {
		cp := *met
		cp.Annotation = met.Annotation.clone()
		if err := m.AddMetabolite(&cp); err != nil {
			return nil, err
		}
	}
	for _, g := range doc.Genes {
		cp := *g
		cp.Annotation = g.Annotation.clone()
		if err := m.AddGene(&cp); err != nil {
			return nil, err
		}
	}
	for _, r := range doc.Reactions {
		if err := m.AddReaction(r.clone()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EncodeDocument serializes a model back to its document shape.
func EncodeDocument(m *Model) ([]byte, error) {
	doc := Document{
		ID:           m.ID,
		Name:         m.Name,
		Compartments: m.Compartments,
		Metabolites:  m.Metabolites(),
		Reactions:    m.Reactions(),
		Genes:        m.Genes(),
	}
	return json.Marshal(doc)
}
