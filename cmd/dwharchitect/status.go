package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the server and its database answer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := call(cmd, anonClient().Health)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", serverURL, status)
		if status != "ok" {
			return errReported
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
