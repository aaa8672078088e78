package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/unwind/model"
)

var (
	demoDetails bool
	demoOutput  bool
)

var demoCmd = &cobra.Command{
	Use:   "demo [NAME...]",
	Short: "Run the built-in scenarios (" + strings.Join(model.DemoNames(), ", ") + ")",
	Run:   demoCommand,
}

func init() {
	demoCmd.Flags().BoolVar(&demoDetails, "details", true, "Print the full execution trace")
	demoCmd.Flags().BoolVar(&demoOutput, "output", true, "Show output printed by the script")
}

func demoCommand(cmd *cobra.Command, args []string) {
	names := args
	if len(names) == 0 {
		names = model.DemoNames()
	}
	ok := true
	for _, name := range names {
		s, err := model.LoadDemo(name)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load demo")
		}
		fmt.Fprintln(os.Stderr, color.Bold.Sprintf("\n### %s", name))
		ok = runScenario(s, demoDetails, demoOutput) && ok
	}
	if !ok {
		os.Exit(1)
	}
}
