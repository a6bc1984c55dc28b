package main

import (
	"github.com/spf13/cobra"

	"github.com/sweeney/burner-controller/internal/clock"
)

func newPrintProfileCmd() *cobra.Command {
	var mode, path string
	cmd := &cobra.Command{
		Use:   "print-profile",
		Short: "Validate a profile and print it as YAML",
		Long: "Loads the profile given with --profile (or the built-in profile for --mode), " +
			"checks that an engine can be built from it, and prints the normalised YAML.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile(mode, path)
			if err != nil {
				return err
			}
			if _, err := engineFromProfile(clock.Real{}, p); err != nil {
				return err
			}
			data, err := p.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "controller variant: staged or ignition")
	cmd.Flags().StringVar(&path, "profile", "", "profile YAML file (default: built-in)")
	return cmd
}
