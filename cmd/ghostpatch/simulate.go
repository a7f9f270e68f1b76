package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsellier/ghostpatch/engine/compile"
	"github.com/tsellier/ghostpatch/engine/sim"
	"github.com/tsellier/ghostpatch/patchgen"
)

var (
	simIntent     string
	simSkill      float64
	simComplexity float64
	simLoad       float64
	simFull       bool
)

func init() {
	simulateCmd.Flags().StringVar(&simIntent, "intent", "", "Intent keywords for fix pattern matching")
	simulateCmd.Flags().Float64Var(&simSkill, "skill", 0.5, "Player skill (0-1)")
	simulateCmd.Flags().Float64Var(&simComplexity, "complexity", 0.5, "Room complexity (0-1)")
	simulateCmd.Flags().Float64Var(&simLoad, "load", 0.2, "System load (0-1)")
	simulateCmd.Flags().BoolVar(&simFull, "full", false, "Print full execution results instead of the patch outcome")

	rootCmd.AddCommand(simulateCmd)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <ghost-id>",
	Short: "Run one patch through the simulation pipeline and print the result as JSON",
	Long: `simulate generates a patch against the named ghost, runs it through the
simulated compile/execute pipeline, and prints the outcome as JSON. Useful
for tuning fix patterns in a content pack without playing through to the
encounter.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, defs, err := loadSetup()
		if err != nil {
			return err
		}

		ghost, ok := defs.Ghosts[args[0]]
		if !ok {
			return fmt.Errorf("unknown ghost %q", args[0])
		}

		processor := compile.New(sim.New(), log)
		gen := patchgen.NewGenerator(processor, log)
		gen.PlayerSkill = simSkill
		gen.RoomComplexity = simComplexity
		gen.SystemLoad = simLoad

		plan, err := gen.GeneratePatch(simIntent, ghost)
		if err != nil {
			return err
		}

		ctx := sim.Context{
			Patch:          plan,
			Ghost:          ghost,
			PlayerSkill:    simSkill,
			RoomComplexity: simComplexity,
			SystemLoad:     simLoad,
		}

		var out any
		if simFull {
			out = processor.GenerateExecutionResults(ctx)
		} else {
			out = processor.ExecutePatches(ctx)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}
