package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/unwind/model"
)

var maxTurns int

var traceCmd = &cobra.Command{
	Use:   "trace SCRIPT.star",
	Short: "Run a bare script and draw the call stack after every step",
	Args:  cobra.ExactArgs(1),
	Run:   traceCommand,
}

func init() {
	traceCmd.Flags().IntVar(&maxTurns, "max-turns", model.DefaultMaxTurns, "Stop draining callbacks after this many turns")
}

func traceCommand(cmd *cobra.Command, args []string) {
	s := &model.Scenario{
		Scenario: model.ScenarioDetails{
			File:               args[0],
			MaxTurns:           maxTurns,
			ContinueAfterCrash: true,
		},
	}
	runner, err := s.BuildRunner(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't open script")
	}
	runner.Interp.Out = os.Stdout
	result, err := runner.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Script failed")
	}
	fmt.Fprint(os.Stdout, model.FormatTrace(runner.Log))
	fmt.Fprint(os.Stdout, model.FormatResult(result))
}
