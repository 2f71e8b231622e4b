package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/zoro11031/pi-static-ip/internal/common"
	"github.com/zoro11031/pi-static-ip/internal/stanza"
	"github.com/zoro11031/pi-static-ip/internal/system"
)

// Settings is the complete, immutable input of one run.
type Settings struct {
	Interface string
	StaticIP  string
	RouterIP  string
	DNS       []string

	// DNSExplicit is set when the DNS list came from a flag, the
	// environment or the config file rather than the defaults.
	DNSExplicit bool

	ConfigPath   string
	BackupSuffix string
	BackupPolicy system.BackupPolicy

	BodyMode  stanza.BodyMode
	BodyLines int

	Service   string
	NoRestart bool

	NonInteractive bool
	AssumeYes      bool
	DryRun         bool
	Force          bool

	StateFile   string
	MetricsFile string
	LogLevel    string
}

// Stanza returns the stanza these settings describe.
func (s Settings) Stanza() stanza.Stanza {
	dns := make([]string, len(s.DNS))
	copy(dns, s.DNS)
	return stanza.Stanza{
		Interface:  s.Interface,
		IPAddress:  s.StaticIP,
		Router:     s.RouterIP,
		DNSServers: dns,
	}
}

// EditorOptions returns the stanza editor options these settings select.
func (s Settings) EditorOptions() stanza.Options {
	return stanza.Options{Body: s.BodyMode, BodyLines: s.BodyLines}
}

// With returns a copy of s with the stanza values replaced. Empty
// arguments keep the current value.
func (s Settings) With(iface, staticIP, routerIP string, dns []string) Settings {
	if iface != "" {
		s.Interface = iface
	}
	if staticIP != "" {
		s.StaticIP = staticIP
	}
	if routerIP != "" {
		s.RouterIP = routerIP
	}
	if len(dns) > 0 {
		s.DNS = append([]string(nil), dns...)
	} else {
		s.DNS = append([]string(nil), s.DNS...)
	}
	return s
}

// NewViper creates a viper instance with defaults and environment binding.
// When configFile is non-empty it is read as YAML; a missing or malformed
// file is an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return v, nil
}

// LoadSettings builds Settings from v. It rejects malformed run options
// (paths, backup policy, body mode); stanza values are validated later, by
// the editor, so interactive prompts can still fill them in.
func LoadSettings(v *viper.Viper) (Settings, error) {
	policy, err := system.ParseBackupPolicy(v.GetString(KeyBackupPolicy))
	if err != nil {
		return Settings{}, common.NewInvalidInputError(common.StepValidate, "invalid backup policy", err)
	}

	mode, err := stanza.ParseBodyMode(v.GetString(KeyBodyMode))
	if err != nil {
		return Settings{}, common.NewInvalidInputError(common.StepValidate, "invalid body mode", err)
	}

	s := Settings{
		Interface:      strings.TrimSpace(v.GetString(KeyInterface)),
		StaticIP:       strings.TrimSpace(v.GetString(KeyStaticIP)),
		RouterIP:       strings.TrimSpace(v.GetString(KeyRouterIP)),
		DNS:            SplitList(v.GetStringSlice(KeyDNS)),
		DNSExplicit:    explicitlySet(v, KeyDNS),
		ConfigPath:     v.GetString(KeyConfigPath),
		BackupSuffix:   v.GetString(KeyBackupSuffix),
		BackupPolicy:   policy,
		BodyMode:       mode,
		BodyLines:      v.GetInt(KeyBodyLines),
		Service:        v.GetString(KeyService),
		NoRestart:      v.GetBool(KeyNoRestart),
		NonInteractive: v.GetBool(KeyNonInteractive),
		AssumeYes:      v.GetBool(KeyAssumeYes),
		DryRun:         v.GetBool(KeyDryRun),
		Force:          v.GetBool(KeyForce),
		StateFile:      v.GetString(KeyStateFile),
		MetricsFile:    v.GetString(KeyMetricsFile),
		LogLevel:       v.GetString(KeyLogLevel),
	}

	if err := common.ValidatePath(s.ConfigPath); err != nil {
		return Settings{}, common.NewInvalidInputError(common.StepValidate, "invalid config path", err)
	}
	if err := common.ValidateBackupSuffix(s.BackupSuffix); err != nil {
		return Settings{}, common.NewInvalidInputError(common.StepValidate, "invalid backup suffix", err)
	}
	if s.BodyLines < 0 {
		return Settings{}, common.NewInvalidInputError(common.StepValidate,
			fmt.Sprintf("body line count must not be negative, got %d", s.BodyLines), nil)
	}
	if err := common.ValidateNotEmpty(s.Service); err != nil {
		return Settings{}, common.NewInvalidInputError(common.StepValidate, "invalid service name", err)
	}

	return s, nil
}

// explicitlySet reports whether key was given in the config file or the
// environment. Flags are not visible here; callers holding the flag set
// check Changed themselves.
func explicitlySet(v *viper.Viper, key string) bool {
	if v.InConfig(key) {
		return true
	}
	_, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(key))
	return ok
}

// SplitList flattens values that may each hold several comma- or
// space-separated entries, dropping empties and keeping order.
func SplitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, field := range strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			out = append(out, field)
		}
	}
	return out
}
