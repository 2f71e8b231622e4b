package main

import (
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the interface address, gateway and DNS servers",
	Long: `Check that the interface carries the static address, the router answers
a ping and each DNS server answers a query.

Values not given as flags are read from the interface's stanza in the
config file. Failed checks are reported as warnings and do not change the
exit status.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	addStanzaFlags(verifyCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	_, err = app.Verify(cmd.Context())
	return err
}
