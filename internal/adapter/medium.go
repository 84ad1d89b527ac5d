package adapter

import (
	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

// ExtracellularCompartment is the compartment medium compounds resolve in.
const ExtracellularCompartment = "e"

// FromMedium translates a growth medium composition into bound operations.
// The medium is exhaustive and replace-not-merge: every listed compound's
// exchange reaction is opened for unlimited uptake, and every exchange
// reaction not backed by a listed compound is closed for uptake (lower
// bound zero). Compounds that do not resolve become per-item issues and
// their exchanges stay closed.
func FromMedium(m *metnet.Model, medium []Compound) ([]ops.Operation, []Issue) {
	var operations []ops.Operation
	var issues []Issue
	open := make(map[string]bool)

	for _, compound := range medium {
		met, err := metnet.FindMetabolite(m, compound.ID, compound.Namespace, ExtracellularCompartment)
		if err != nil {
			issues = append(issues, issuef(compound.ID, err))
			continue
		}
		exchange, err := m.ExchangeFor(met.ID)
		if err != nil {
			issues = append(issues, issuef(compound.ID, err))
			continue
		}
		if open[exchange.ID] {
			continue
		}
		open[exchange.ID] = true
		operations = append(operations, ops.ModifyReactionBounds(exchange.ID, -metnet.DefaultBound, exchange.UpperBound))
	}

	// Close uptake on everything the medium does not supply, in stable
	// model order.
	for _, exchange := range m.Exchanges() {
		if open[exchange.ID] {
			continue
		}
		operations = append(operations, ops.ModifyReactionBounds(exchange.ID, 0, exchange.UpperBound))
	}
	return operations, issues
}
