package cli

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zoro11031/pi-static-ip/internal/common"
	"github.com/zoro11031/pi-static-ip/internal/stanza"
)

// Output formats accepted by Show.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// ShowResult is the parsed static configuration of the target file.
type ShowResult struct {
	ConfigPath string          `yaml:"config_path"`
	Stanzas    []stanza.Stanza `yaml:"stanzas"`
}

// Show prints the static stanzas in the target file. With iface set only
// that interface is reported; with iface empty, all of them.
func (a *App) Show(ctx context.Context, iface, format string) (result *ShowResult, err error) {
	defer func() { a.observe("show", err) }()

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatYAML {
		return nil, common.NewInvalidInputError(common.StepValidate,
			fmt.Sprintf("unknown output format %q (want text or yaml)", format), nil)
	}

	doc, err := a.readDocument()
	if err != nil {
		return nil, err
	}

	result = &ShowResult{ConfigPath: a.Settings.ConfigPath, Stanzas: []stanza.Stanza{}}
	if iface != "" {
		if st, ok := stanza.Lookup(doc, iface); ok {
			result.Stanzas = append(result.Stanzas, st)
		}
	} else {
		result.Stanzas = append(result.Stanzas, stanza.Parse(doc)...)
	}

	if format == FormatYAML {
		out, err := yaml.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		a.UI.Data(string(out))
		return result, nil
	}

	if len(result.Stanzas) == 0 {
		if iface != "" {
			a.UI.Infof("No static configuration for %s in %s", iface, result.ConfigPath)
		} else {
			a.UI.Infof("No static configuration in %s", result.ConfigPath)
		}
		return result, nil
	}

	for _, st := range result.Stanzas {
		a.UI.Bold(st.Interface)
		a.UI.KeyValue("IP address", st.IPAddress)
		a.UI.KeyValue("Router", st.Router)
		a.UI.KeyValue("DNS", strings.Join(st.DNSServers, " "))
	}
	return result, nil
}
