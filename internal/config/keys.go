package config

// Setting keys, shared by flags, environment variables (PI_STATIC_IP_<KEY>)
// and the optional YAML config file.
const (
	// Stanza values
	KeyInterface = "interface"
	KeyStaticIP  = "static_ip"
	KeyRouterIP  = "router_ip"
	KeyDNS       = "dns"

	// Target file and backup
	KeyConfigPath   = "config_path"
	KeyBackupSuffix = "backup_suffix"
	KeyBackupPolicy = "backup_policy"

	// Editing behaviour
	KeyBodyMode  = "body_mode"
	KeyBodyLines = "body_lines"

	// Daemon
	KeyService   = "service"
	KeyNoRestart = "no_restart"

	// Run behaviour
	KeyNonInteractive = "non_interactive"
	KeyAssumeYes      = "yes"
	KeyDryRun         = "dry_run"
	KeyForce          = "force"

	// Ancillary outputs
	KeyStateFile   = "state_file"
	KeyMetricsFile = "metrics_file"
	KeyLogLevel    = "log_level"
)

// Keys recorded in the last-applied state file.
const (
	StateLastInterface = "LAST_INTERFACE"
	StateLastStaticIP  = "LAST_STATIC_IP"
	StateLastRouterIP  = "LAST_ROUTER_IP"
	StateLastDNS       = "LAST_DNS"
	StateLastAppliedAt = "LAST_APPLIED_AT"
	StateLastBackup    = "LAST_BACKUP"
)

// EnvPrefix is the prefix of environment variables read as settings.
const EnvPrefix = "PI_STATIC_IP"

// Default values for setting keys
var Defaults = map[string]string{
	KeyInterface:    "eth0",
	KeyDNS:          "8.8.8.8 1.1.1.1",
	KeyConfigPath:   "/etc/dhcpcd.conf",
	KeyBackupSuffix: ".bak",
	KeyBackupPolicy: "overwrite",
	KeyBodyMode:     "structural",
	KeyBodyLines:    "5",
	KeyService:      "dhcpcd",
	KeyLogLevel:     "warn",
}
