// Command fluxsim runs the constraint-derivation and simulation pipeline
// over a model document from the command line: it loads the model, derives
// operations from an optional conditions file and prints the simulation
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"fluxcore/internal/deltalog"
	"fluxcore/internal/modelstore"
	"fluxcore/internal/observe"
	"fluxcore/internal/pipeline"
	"fluxcore/internal/sim"
	"fluxcore/internal/solver/simplex"
	"fluxcore/pkg/metnet"
)

var exitFunc = os.Exit

func main() {
	var (
		modelPath      = pflag.String("model", "", "path to a JSON model document (required)")
		conditionsPath = pflag.String("conditions", "", "path to a JSON conditions payload")
		method         = pflag.String("method", "fba", "simulation method: fba or pfba")
		objective      = pflag.String("objective", "", "objective reaction override")
		direction      = pflag.String("direction", "", "optimization direction: maximize or minimize")
	)
	pflag.Parse()

	if err := run(*modelPath, *conditionsPath, *method, *objective, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "fluxsim:", err)
		exitFunc(1)
	}
}

func run(modelPath, conditionsPath, method, objective, direction string) error {
	if modelPath == "" {
		return fmt.Errorf("--model is required")
	}
	raw, err := os.ReadFile(modelPath)
	if err != nil {
		return err
	}
	model, err := metnet.DecodeDocument(raw)
	if err != nil {
		return err
	}
	biomass := objective
	if biomass == "" {
		objs := model.Objective()
		if len(objs) == 0 {
			return fmt.Errorf("model declares no objective reaction; pass --objective")
		}
		biomass = objs[0].ID
	}

	store := modelstore.NewMemory()
	store.Put(model.ID, &modelstore.Wrapper{Model: model, BiomassReaction: biomass})
	engine := sim.New(simplex.New(), observe.Noop{})
	service := pipeline.New(store, deltalog.NewMemoryLog(), engine, nil, observe.Noop{})

	ctx := context.Background()
	req := pipeline.SimulateRequest{
		ModelID:   model.ID,
		Method:    sim.Method(method),
		Objective: objective,
		Direction: sim.Direction(direction),
	}

	if conditionsPath != "" {
		rawConditions, err := os.ReadFile(conditionsPath)
		if err != nil {
			return err
		}
		var conditions pipeline.Conditions
		if err := json.Unmarshal(rawConditions, &conditions); err != nil {
			return fmt.Errorf("decode conditions: %w", err)
		}
		modified, err := service.ModifyModel(ctx, model.ID, conditions)
		if err != nil {
			return err
		}
		for _, issue := range modified.Issues {
			fmt.Fprintf(os.Stderr, "fluxsim: condition %s: %s\n", issue.ID, issue.Message)
		}
		req.Operations = modified.Operations
	}

	result, err := service.Simulate(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
