package main

import (
	"github.com/spf13/cobra"

	"github.com/zoro11031/pi-static-ip/internal/cli"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show [interface]",
	Short: "Show the static configuration in the config file",
	Long: `List the static addresses, routers and DNS servers configured in the
config file. With an interface argument only that interface is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", cli.FormatText, "Output format: text or yaml")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	iface := ""
	if len(args) == 1 {
		iface = args[0]
	}

	_, err = app.Show(cmd.Context(), iface, showOutput)
	return err
}
