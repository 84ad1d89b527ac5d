// Package fixture builds the small reference network used across package
// tests: a glucose/oxygen core with ethanol, acetate and formate branches,
// gene associations on the transport and branch reactions, and annotated
// extracellular metabolites so namespace resolution paths are exercised.
package fixture

import (
	"fluxcore/internal/modelstore"
	"fluxcore/pkg/metnet"
)

// Reaction and gene ids used by the fixture network.
const (
	GlucoseExchange = "EX_glc__D_e"
	OxygenExchange  = "EX_o2_e"
	EthanolExchange = "EX_etoh_e"
	AcetateExchange = "EX_ac_e"
	FormateExchange = "EX_for_e"
	Biomass         = "BIOMASS"
	Phosphotrans    = "PTA"
	PyruvateLyase   = "PFL"

	GlucoseTransportGene = "b1101"
	PhosphotransGene     = "b2297"
)

// Model assembles a fresh fixture network. Every call returns an
// independent instance.
func Model() *metnet.Model {
	m := metnet.NewModel("e_coli_core_mini")
	m.Name = "reduced central carbon network"
	m.Compartments["c"] = "cytosol"
	m.Compartments["e"] = "extracellular space"

	mets := []*metnet.Metabolite{
		{ID: "glc__D_e", Name: "D-glucose", Compartment: "e", Annotation: metnet.Annotation{
			"bigg.metabolite": {"glc__D"},
			"CHEBI":           {"CHEBI:17634", "CHEBI:4167"},
		}},
		{ID: "glc__D_c", Name: "D-glucose", Compartment: "c"},
		{ID: "o2_e", Name: "oxygen", Compartment: "e", Annotation: metnet.Annotation{
			"bigg.metabolite": {"o2"},
			"CHEBI":           {"CHEBI:15379"},
		}},
		{ID: "o2_c", Name: "oxygen", Compartment: "c"},
		{ID: "etoh_e", Name: "ethanol", Compartment: "e", Annotation: metnet.Annotation{
			"bigg.metabolite": {"etoh"},
			"CHEBI":           {"CHEBI:16236"},
		}},
		{ID: "etoh_c", Name: "ethanol", Compartment: "c"},
		{ID: "ac_e", Name: "acetate", Compartment: "e", Annotation: metnet.Annotation{
			"bigg.metabolite": {"ac"},
			"CHEBI":           {"CHEBI:30089"},
		}},
		{ID: "ac_c", Name: "acetate", Compartment: "c"},
		{ID: "for_e", Name: "formate", Compartment: "e"},
		{ID: "for_c", Name: "formate", Compartment: "c"},
	}
	for _, met := range mets {
		mustAdd(m.AddMetabolite(met))
	}

	mustAdd(m.AddGene(&metnet.Gene{ID: GlucoseTransportGene, Name: "ptsG"}))
	mustAdd(m.AddGene(&metnet.Gene{ID: PhosphotransGene, Name: "pta"}))
	mustAdd(m.AddGene(&metnet.Gene{ID: "b0902", Name: "pflA"}))
	mustAdd(m.AddGene(&metnet.Gene{ID: "b0903", Name: "pflB"}))
	mustAdd(m.AddGene(&metnet.Gene{ID: "b3952", Name: "pflD"}))

	reactions := []*metnet.Reaction{
		{ID: GlucoseExchange, Name: "D-glucose exchange", Metabolites: map[string]float64{"glc__D_e": -1}, LowerBound: -10, UpperBound: metnet.DefaultBound},
		{ID: "GLCt", Name: "glucose transport", Metabolites: map[string]float64{"glc__D_e": -1, "glc__D_c": 1}, LowerBound: -metnet.DefaultBound, UpperBound: metnet.DefaultBound, GeneRule: GlucoseTransportGene},
		{ID: OxygenExchange, Name: "oxygen exchange", Metabolites: map[string]float64{"o2_e": -1}, LowerBound: -metnet.DefaultBound, UpperBound: metnet.DefaultBound},
		{ID: "O2t", Name: "oxygen transport", Metabolites: map[string]float64{"o2_e": -1, "o2_c": 1}, LowerBound: -metnet.DefaultBound, UpperBound: metnet.DefaultBound},
		{ID: Biomass, Name: "biomass pseudo-reaction", Metabolites: map[string]float64{"glc__D_c": -1, "o2_c": -1, "etoh_c": 1}, LowerBound: 0, UpperBound: metnet.DefaultBound, ObjectiveCoefficient: 1},
		{ID: "ETOHt", Name: "ethanol transport", Metabolites: map[string]float64{"etoh_c": -1, "etoh_e": 1}, LowerBound: -metnet.DefaultBound, UpperBound: metnet.DefaultBound},
		{ID: EthanolExchange, Name: "ethanol exchange", Metabolites: map[string]float64{"etoh_e": -1}, LowerBound: 0, UpperBound: metnet.DefaultBound},
		{ID: Phosphotrans, Name: "phosphotransacetylase", Metabolites: map[string]float64{"glc__D_c": -1, "ac_c": 1}, LowerBound: -metnet.DefaultBound, UpperBound: metnet.DefaultBound, GeneRule: PhosphotransGene},
		{ID: "ACt", Name: "acetate transport", Metabolites: map[string]float64{"ac_c": -1, "ac_e": 1}, LowerBound: -metnet.DefaultBound, UpperBound: metnet.DefaultBound},
		{ID: AcetateExchange, Name: "acetate exchange", Metabolites: map[string]float64{"ac_e": -1}, LowerBound: 0, UpperBound: metnet.DefaultBound},
		{ID: PyruvateLyase, Name: "pyruvate formate lyase", Metabolites: map[string]float64{"glc__D_c": -1, "for_c": 1}, LowerBound: 0, UpperBound: metnet.DefaultBound, GeneRule: "(b0902 and b0903) or b3952"},
		{ID: "FORt", Name: "formate transport", Metabolites: map[string]float64{"for_c": -1, "for_e": 1}, LowerBound: -metnet.DefaultBound, UpperBound: metnet.DefaultBound},
		{ID: FormateExchange, Name: "formate exchange", Metabolites: map[string]float64{"for_e": -1}, LowerBound: 0, UpperBound: metnet.DefaultBound},
	}
	for _, r := range reactions {
		mustAdd(m.AddReaction(r))
	}
	return m
}

// Wrapper returns the fixture model wrapped the way the model store hands
// it to the pipeline.
func Wrapper() *modelstore.Wrapper {
	return &modelstore.Wrapper{Model: Model(), OrganismID: "ECO", BiomassReaction: Biomass}
}

func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}
