package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/unwind/model"
)

var (
	keepGoing   bool
	detailsFlag bool
	outputFlag  bool
)

var runCmd = &cobra.Command{
	Use:   "run SCENARIO",
	Short: "Run a scenario description (.toml or .yaml) and check its expectations",
	Args:  cobra.ExactArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Report every violated expectation instead of only the first")
	runCmd.Flags().BoolVar(&detailsFlag, "details", false, "Print the full execution trace with the stack after every step")
	runCmd.Flags().BoolVar(&outputFlag, "output", true, "Show output printed by the script")
}

func runCommand(cmd *cobra.Command, args []string) {
	scenario, err := model.LoadScenarioFromFile(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load scenario")
	}
	if !runScenario(scenario, detailsFlag, outputFlag) {
		os.Exit(1)
	}
}

// runScenario runs s, prints the report and returns whether every
// expectation held.
func runScenario(s *model.Scenario, details, output bool) bool {
	runner, err := s.BuildRunner(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't build runner for scenario")
	}
	runner.Reporter = &model.ColorReporter{Writer: os.Stderr}
	if output {
		runner.Interp.Out = os.Stdout
	}

	fmt.Fprintln(os.Stderr, color.Cyan.Sprint("Running scenario..."))
	result, err := runner.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Error while running scenario")
	}

	if details {
		fmt.Fprint(os.Stderr, model.FormatTrace(runner.Log))
	}
	fmt.Fprint(os.Stderr, model.FormatResult(result))

	if !result.Success {
		if keepGoing {
			fmt.Fprint(os.Stderr, model.FormatAllViolations(result.Violations))
		} else {
			fmt.Fprint(os.Stderr, model.FormatViolation(result.Violations[0]))
		}
	}

	fmt.Fprint(os.Stderr, model.FormatStatistics(result.Statistics))

	if result.Success {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, color.Green.Sprint("✓ Scenario finished - all expectations met"))
	}
	return result.Success
}
