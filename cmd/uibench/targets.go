package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the configured targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, release, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer release()
		fmt.Fprintln(cmd.OutOrStdout(), targetsTable(cfg.Targets))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
