package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsellier/ghostpatch/cli"
	"github.com/tsellier/ghostpatch/tui"
)

var (
	plain      bool
	scriptFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal (TUI, plain, or scripted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, defs, err := loadSetup()
		if err != nil {
			return err
		}
		eng := buildEngine(cfg, defs, log)

		// Script mode: read commands from a file, echoing them.
		if scriptFile != "" {
			f, err := os.Open(scriptFile)
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer f.Close()
			c := cli.New(eng)
			c.In = f
			c.EchoInput = true
			c.Run()
			return nil
		}

		if plain || !isTerminal() {
			cli.New(eng).Run()
			return nil
		}
		return tui.Run(eng)
	},
}

func init() {
	playCmd.Flags().BoolVar(&plain, "plain", false, "Plain line-based interface instead of the TUI")
	playCmd.Flags().StringVar(&scriptFile, "script", "", "Play commands from a script file")
	rootCmd.AddCommand(playCmd)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func timeSeed() int64 {
	return time.Now().UnixNano()
}
