package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocs/pkg/config"
)

// newConfigCmd creates the "ocs config" subcommand.
func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Prints the configuration after file, environment and flag overrides, as TOML.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Encode(a.cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if a.cfg.Path != "" {
				fmt.Fprintf(w, "# loaded from %s\n", a.cfg.Path)
			}
			_, err = w.Write(data)
			return err
		},
	}
}
