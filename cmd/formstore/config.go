package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func configCmd(opts *rootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
.env and environment variables. Credentials are masked.

Examples:
  formstore config
  formstore config --check --config=formstore.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if check {
				success("Configuration is valid")
				return nil
			}

			data, err := cfg.Dump()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Only validate the configuration")

	return cmd
}
