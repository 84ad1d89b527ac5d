package metnet

import (
	"encoding/json"
	"testing"
)

const sampleDocument = `{
	"id": "toy",
	"name": "toy network",
	"compartments": {"c": "cytosol", "e": "extracellular space"},
	"metabolites": [
		{"id": "glc__D_e", "compartment": "e", "annotation": {"CHEBI": "CHEBI:17634"}},
		{"id": "glc__D_c", "compartment": "c"}
	],
	"genes": [{"id": "b1101", "name": "ptsG"}],
	"reactions": [
		{"id": "EX_glc__D_e", "metabolites": {"glc__D_e": -1}, "lower_bound": -10, "upper_bound": 1000},
		{"id": "GLCt", "metabolites": {"glc__D_e": -1, "glc__D_c": 1}, "lower_bound": -1000, "upper_bound": 1000, "gene_reaction_rule": "b1101", "objective_coefficient": 1}
	]
}`

func TestDecodeDocument(t *testing.T) {
	m, err := DecodeDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ID != "toy" || m.Name != "toy network" {
		t.Errorf("identity = %s / %s", m.ID, m.Name)
	}
	if len(m.Reactions()) != 2 || len(m.Metabolites()) != 2 || len(m.Genes()) != 1 {
		t.Fatalf("sizes = %d reactions, %d metabolites, %d genes",
			len(m.Reactions()), len(m.Metabolites()), len(m.Genes()))
	}
	// Scalar annotation values decode into a single-element list.
	met, _ := m.Metabolite("glc__D_e")
	if got := met.Annotation["CHEBI"]; len(got) != 1 || got[0] != "CHEBI:17634" {
		t.Errorf("scalar annotation = %v", got)
	}
	objs := m.Objective()
	if len(objs) != 1 || objs[0].ID != "GLCt" {
		t.Errorf("objective = %v", objs)
	}
}

func TestEncodeDocumentRoundTrip(t *testing.T) {
	m, err := DecodeDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw, err := EncodeDocument(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if len(again.Reactions()) != len(m.Reactions()) {
		t.Errorf("reaction count changed across round trip")
	}
	r, ok := again.Reaction("GLCt")
	if !ok || r.GeneRule != "b1101" || r.ObjectiveCoefficient != 1 {
		t.Errorf("GLCt lost fields: %+v", r)
	}
}

func TestIDListScalarEncoding(t *testing.T) {
	raw, err := json.Marshal(Annotation{"CHEBI": {"CHEBI:17634"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"CHEBI":"CHEBI:17634"}` {
		t.Errorf("single id encoded as %s, want scalar form", raw)
	}
}

func TestDecodeDocumentRejectsBadRule(t *testing.T) {
	doc := `{"id": "bad", "metabolites": [], "reactions": [
		{"id": "R1", "metabolites": {"a_c": 1}, "gene_reaction_rule": "(b0001"}
	]}`
	if _, err := DecodeDocument([]byte(doc)); err == nil {
		t.Fatalf("malformed gene rule decoded without error")
	}
}
