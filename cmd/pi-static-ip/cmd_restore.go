package main

import (
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Put the last backup back in place",
	Long: `Copy the most recent backup over the config file and restart the daemon.

With --backup-policy=timestamped the newest timestamped backup is used.`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	_, err = app.Restore(cmd.Context())
	return err
}
