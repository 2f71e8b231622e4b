package main

import (
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the change apply would make",
	Long:  `Print a unified diff between the current config file and the result of apply. Nothing is written.`,
	Args:  cobra.NoArgs,
	RunE:  runDiff,
}

func init() {
	addStanzaFlags(diffCmd)
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	_, err = app.Diff(cmd.Context())
	return err
}
