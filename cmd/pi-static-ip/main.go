package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zoro11031/pi-static-ip/internal/cli"
	"github.com/zoro11031/pi-static-ip/internal/common"
	"github.com/zoro11031/pi-static-ip/internal/config"
	"github.com/zoro11031/pi-static-ip/internal/logging"
	"github.com/zoro11031/pi-static-ip/internal/stanza"
	"github.com/zoro11031/pi-static-ip/internal/ui"
	"github.com/zoro11031/pi-static-ip/pkg/version"
)

// Exit codes. A failed restart gets its own code because the file has
// already been written when it happens.
const (
	exitError         = 1
	exitRestartFailed = 2
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "pi-static-ip",
	Short: "Configure a static IPv4 address in dhcpcd.conf",
	Long: `Give a network interface a fixed IPv4 address, gateway and DNS servers
by editing /etc/dhcpcd.conf and restarting dhcpcd.

Any existing stanza for the interface is replaced; everything else in the
file is left as it is. A backup is taken before every change.

Settings come from flags, PI_STATIC_IP_* environment variables or a YAML
file given with --config, in that order of precedence.`,
	SilenceUsage:  true, // We handle errors manually, but silence usage on error
	SilenceErrors: true, // We format errors ourselves for consistent output
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	d := config.Defaults
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&configFile, "config", "", "YAML settings file")
	pf.StringP("interface", "i", d[config.KeyInterface], "Network interface to configure")
	pf.String("config-path", d[config.KeyConfigPath], "dhcpcd configuration file")
	pf.String("backup-suffix", d[config.KeyBackupSuffix], "Suffix appended to the config path for backups")
	pf.String("backup-policy", d[config.KeyBackupPolicy], "Backup naming: overwrite or timestamped")
	pf.String("body-mode", d[config.KeyBodyMode], "How an existing stanza's end is found: structural or fixed")
	pf.Int("body-lines", stanza.DefaultBodyLines, "Body size in lines for --body-mode=fixed")
	pf.String("service", d[config.KeyService], "systemd unit restarted after a change")
	pf.Bool("no-restart", false, "Do not restart the service")
	pf.Bool("non-interactive", false, "Never prompt; fail when a value is missing")
	pf.BoolP("yes", "y", false, "Do not ask for confirmation")
	pf.String("state-file", config.DefaultStatePath(), "File remembering the last applied values")
	pf.String("metrics-file", "", "Write Prometheus textfile metrics here")
	pf.String("log-level", d[config.KeyLogLevel], "Diagnostic log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

// addStanzaFlags adds the flags describing the desired stanza.
func addStanzaFlags(cmd *cobra.Command) {
	cmd.Flags().String("ip", "", "Static address with prefix length, e.g. 192.168.1.42/24")
	cmd.Flags().String("router", "", "Gateway address")
	cmd.Flags().StringSlice("dns", strings.Fields(config.Defaults[config.KeyDNS]), "DNS servers, repeatable or comma separated")
}

// flagKeys maps flag names that differ from their setting key.
var flagKeys = map[string]string{
	"ip":     config.KeyStaticIP,
	"router": config.KeyRouterIP,
	"yes":    config.KeyAssumeYes,
}

func settingKey(flagName string) string {
	if key, ok := flagKeys[flagName]; ok {
		return key
	}
	return strings.ReplaceAll(flagName, "-", "_")
}

// newApp assembles the run's settings and dependencies from the parsed
// flags of cmd.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	v, err := config.NewViper(configFile)
	if err != nil {
		return nil, common.NewInvalidInputError(common.StepValidate, "cannot load settings", err)
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(settingKey(f.Name), f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	settings, err := config.LoadSettings(v)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("dns"); f != nil && f.Changed {
		settings.DNSExplicit = true
	}

	u := ui.New()
	if settings.NonInteractive {
		u.SetNonInteractive(true)
	}

	log := logging.New(settings.LogLevel)
	if used := v.ConfigFileUsed(); used != "" {
		log.WithField("path", used).Debug("Loaded settings file")
	}

	return cli.NewApp(settings, u, log), nil
}

func exitCode(err error) int {
	if common.IsServiceRestartError(err) {
		return exitRestartFailed
	}
	return exitError
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
