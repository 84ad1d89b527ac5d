package metnet

import (
	"errors"
	"testing"
)

func annotatedModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel("annotated")
	mets := []*Metabolite{
		{ID: "glc__D_e", Compartment: "e", Annotation: Annotation{
			"CHEBI":           {"CHEBI:17634", "CHEBI:4167"},
			"bigg.metabolite": {"glc__D"},
		}},
		{ID: "glc__D_c", Compartment: "c"},
		{ID: "o2_e", Compartment: "e", Annotation: Annotation{"CHEBI": {"CHEBI:15379"}}},
	}
	for _, met := range mets {
		if err := m.AddMetabolite(met); err != nil {
			t.Fatalf("add metabolite: %v", err)
		}
	}
	reactions := []*Reaction{
		{ID: "EX_glc__D_e", Metabolites: map[string]float64{"glc__D_e": -1}, Annotation: Annotation{
			"bigg.reaction": {"EX_glc"},
		}},
		{ID: "GLCt", Metabolites: map[string]float64{"glc__D_e": -1, "glc__D_c": 1}},
	}
	for _, r := range reactions {
		if err := m.AddReaction(r); err != nil {
			t.Fatalf("add reaction: %v", err)
		}
	}
	return m
}

func TestFindReactionByID(t *testing.T) {
	m := annotatedModel(t)
	r, err := FindReaction(m, "ex_glc__d_e", "anything")
	if err != nil {
		t.Fatalf("find by case-insensitive id: %v", err)
	}
	if r.ID != "EX_glc__D_e" {
		t.Errorf("found %s", r.ID)
	}
}

func TestFindReactionByAnnotation(t *testing.T) {
	m := annotatedModel(t)
	r, err := FindReaction(m, "ex_glc", "BIGG.REACTION")
	if err != nil {
		t.Fatalf("find by annotation: %v", err)
	}
	if r.ID != "EX_glc__D_e" {
		t.Errorf("found %s", r.ID)
	}
}

func TestFindReactionWrongNamespace(t *testing.T) {
	m := annotatedModel(t)
	_, err := FindReaction(m, "EX_glc", "kegg.reaction")
	if !IsNotFound(err) {
		t.Fatalf("wrong-namespace lookup returned %v, want NotFoundError", err)
	}
}

func TestFindMetaboliteByAnnotation(t *testing.T) {
	m := annotatedModel(t)
	met, err := FindMetabolite(m, "chebi:17634", "chebi", "e")
	if err != nil {
		t.Fatalf("find by annotation: %v", err)
	}
	if met.ID != "glc__D_e" {
		t.Errorf("found %s", met.ID)
	}
}

func TestFindMetaboliteSuffixRetry(t *testing.T) {
	m := annotatedModel(t)
	// "glc__D_c" only matches after the compartment suffix is appended.
	met, err := FindMetabolite(m, "glc__D", "bigg.metabolite", "c")
	if err != nil {
		t.Fatalf("suffix retry: %v", err)
	}
	if met.ID != "glc__D_c" {
		t.Errorf("found %s, want glc__D_c", met.ID)
	}
}

func TestFindMetaboliteCompartmentScoped(t *testing.T) {
	m := annotatedModel(t)
	// The annotation lives on the extracellular metabolite only.
	if _, err := FindMetabolite(m, "CHEBI:17634", "CHEBI", "c"); !IsNotFound(err) {
		t.Fatalf("cross-compartment lookup returned %v, want NotFoundError", err)
	}
}

func TestFindMetaboliteAmbiguous(t *testing.T) {
	m := annotatedModel(t)
	if err := m.AddMetabolite(&Metabolite{ID: "glc__B_e", Compartment: "e", Annotation: Annotation{
		"CHEBI": {"CHEBI:17634"},
	}}); err != nil {
		t.Fatalf("add metabolite: %v", err)
	}
	_, err := FindMetabolite(m, "CHEBI:17634", "CHEBI", "e")
	var ambiguous AmbiguousMatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("duplicate annotation lookup returned %v, want AmbiguousMatchError", err)
	}
	if len(ambiguous.Matches) != 2 {
		t.Errorf("ambiguous matches = %v", ambiguous.Matches)
	}
}
