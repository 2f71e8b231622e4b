package main

import (
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write the static stanza and restart the daemon",
	Long: `Replace any existing stanza for the interface with a new one and restart
the network daemon.

The config file is backed up first; if the backup fails nothing is
written. If the restart fails the new file is kept and the command exits
with status 2. Run 'pi-static-ip restore' to go back to the backup.

Missing values are prompted for when running on a terminal.`,
	Example: `  pi-static-ip apply --ip 192.168.1.42/24 --router 192.168.1.1
  pi-static-ip apply -i wlan0 --ip 192.168.1.43/24 --router 192.168.1.1 --dns 192.168.1.1 --yes
  pi-static-ip apply --ip 192.168.1.42/24 --router 192.168.1.1 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	addStanzaFlags(applyCmd)
	applyCmd.Flags().Bool("dry-run", false, "Print the change as a diff without writing anything")
	applyCmd.Flags().Bool("force", false, "Rewrite the file and restart even when nothing changed")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	_, err = app.Apply(cmd.Context())
	return err
}
