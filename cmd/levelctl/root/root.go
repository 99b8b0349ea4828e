package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"onchain-leveling-backend/internal/common/logger"
)

const Version = "1.0.0"

var debug bool

var rootCmd = &cobra.Command{
	Use:           "levelctl",
	Short:         "Inspect and drive the onchain leveling contract",
	Long:          "levelctl reads profiles and the task catalog from the leveling contract and submits completions or registrations with a local key.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitWithWriter(os.Stderr, "levelctl", debug, logger.FormatConsole)
	},
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	rootCmd.AddCommand(
		newLevelCmd(),
		newProfileCmd(),
		newTasksCmd(),
		newCompleteCmd(),
		newRegisterCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, Bad.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
