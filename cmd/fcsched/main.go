// fcsched runs the flight-controller task scheduler on a host.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fcsched",
		Short:        "Cooperative flight-controller task scheduler",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "./config.yaml", "path to config (yaml or json)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCmd(),
		newTasksCmd(),
		newSimulateCmd(),
	)
	return root
}
