package stanza

import (
	"fmt"
	"strings"

	"github.com/zoro11031/pi-static-ip/internal/common"
)

// Keys of the static options this tool writes.
const (
	keyIPAddress  = "ip_address"
	keyRouters    = "routers"
	keyDNSServers = "domain_name_servers"

	markerPrefix = "interface "
	staticPrefix = "static "
)

// Stanza is the static IPv4 addressing for one interface.
type Stanza struct {
	Interface  string   `yaml:"interface"`
	IPAddress  string   `yaml:"ip_address"`
	Router     string   `yaml:"router"`
	DNSServers []string `yaml:"dns_servers"`
}

// Validate checks the stanza is well-formed enough to be written.
// Every failure is an InvalidInput error.
func (s Stanza) Validate() error {
	if err := common.ValidateInterfaceName(s.Interface); err != nil {
		return common.NewInvalidInputError(common.StepValidate, "invalid interface name", err)
	}
	if err := common.ValidateCIDR(s.IPAddress); err != nil {
		return common.NewInvalidInputError(common.StepValidate, "invalid static IP address", err)
	}
	if err := common.ValidateIP(s.Router); err != nil {
		return common.NewInvalidInputError(common.StepValidate, "invalid router address", err)
	}
	if err := common.ValidateDNSServers(s.DNSServers); err != nil {
		return common.NewInvalidInputError(common.StepValidate, "invalid DNS server list", err)
	}
	return nil
}

// Lines renders the stanza in the fixed four-line shape:
//
//	interface <name>
//	static ip_address=<ip>/<prefixLen>
//	static routers=<routerIp>
//	static domain_name_servers=<dns1> <dns2> ...
func (s Stanza) Lines() []string {
	return []string{
		markerLine(s.Interface),
		fmt.Sprintf("%s%s=%s", staticPrefix, keyIPAddress, s.IPAddress),
		fmt.Sprintf("%s%s=%s", staticPrefix, keyRouters, s.Router),
		fmt.Sprintf("%s%s=%s", staticPrefix, keyDNSServers, strings.Join(s.DNSServers, " ")),
	}
}

func markerLine(iface string) string {
	return markerPrefix + iface
}

// isMarkerFor reports whether line is exactly the marker for iface once
// surrounding whitespace is trimmed. Prefixes do not match: eth0 never
// matches "interface eth0:1".
func isMarkerFor(line, iface string) bool {
	return strings.TrimSpace(line) == markerLine(iface)
}

// markerName returns the interface named by a marker line, if line is one.
func markerName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, markerPrefix) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(trimmed, markerPrefix))
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", false
	}
	return name, true
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
