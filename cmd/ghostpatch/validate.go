package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsellier/ghostpatch/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate <content-dir>",
	Short: "Load and validate a content directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := loader.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d rooms, %d ghosts. Content is valid.\n",
			defs.Game.Title, len(defs.Rooms), len(defs.Ghosts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
