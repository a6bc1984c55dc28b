// Command burner-controller runs the staged burner / ignition controller: it
// ticks the control engine, applies outputs, and reports over MQTT and HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "burner-controller",
		Short:         "Staged burner and ignition controller",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newPrintProfileCmd())
	return root
}
