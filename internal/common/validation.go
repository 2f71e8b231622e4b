package common

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/c-robinson/iplib"
)

// maxInterfaceNameLen is IFNAMSIZ minus the terminating NUL.
const maxInterfaceNameLen = 15

// ValidateIP validates an IPv4 address
func ValidateIP(ip string) error {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}

	// net.ParseIP returns the 16-byte form, and IPv4-mapped IPv6 text such
	// as ::ffff:192.168.1.1 parses to the same bytes as the dotted quad.
	if strings.Contains(ip, ":") || iplib.EffectiveVersion(parsed) != iplib.IP4Version {
		return fmt.Errorf("not a valid IPv4 address: %s", ip)
	}

	return nil
}

// ValidateCIDR validates an IPv4 address with an explicit prefix length,
// e.g. 192.168.1.42/24
func ValidateCIDR(cidr string) error {
	if !strings.Contains(cidr, "/") {
		return fmt.Errorf("address must include a prefix length (e.g. /24): %s", cidr)
	}

	if strings.Contains(cidr, ":") {
		return fmt.Errorf("not a valid IPv4 CIDR address: %s", cidr)
	}

	ip, _, err := iplib.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR address: %s", cidr)
	}

	if iplib.EffectiveVersion(ip) != iplib.IP4Version {
		return fmt.Errorf("not a valid IPv4 CIDR address: %s", cidr)
	}

	return nil
}

// RouterInSubnet reports whether router lies inside the network of cidr.
// Both values must already be valid; invalid input reports false.
func RouterInSubnet(cidr, router string) bool {
	_, network, err := iplib.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(router)
	if ip == nil {
		return false
	}
	return network.Contains(ip)
}

// ValidateInterfaceName validates a Linux network interface name.
// Names are limited to 15 characters from [A-Za-z0-9_.:-]; the colon
// allows alias interfaces such as eth0:1.
func ValidateInterfaceName(name string) error {
	if name == "" {
		return fmt.Errorf("interface name cannot be empty")
	}

	if len(name) > maxInterfaceNameLen {
		return fmt.Errorf("interface name too long (max %d characters): %s", maxInterfaceNameLen, name)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("interface name cannot be '.' or '..'")
	}

	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == '.' || c == ':') {
			return fmt.Errorf("interface name contains invalid character %q: %s", c, name)
		}
	}

	return nil
}

// ValidateDNSServers validates a non-empty list of IPv4 resolver addresses.
// Duplicates are allowed.
func ValidateDNSServers(servers []string) error {
	if len(servers) == 0 {
		return fmt.Errorf("at least one DNS server is required")
	}

	for _, server := range servers {
		if err := ValidateIP(server); err != nil {
			return fmt.Errorf("invalid DNS server: %w", err)
		}
	}

	return nil
}

// ValidatePath validates that a path is absolute
func ValidatePath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	return nil
}

// ValidateNotEmpty validates that a string is not empty
func ValidateNotEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	return nil
}

// ValidateBackupSuffix validates the suffix appended to the config path
// to name its backup.
func ValidateBackupSuffix(suffix string) error {
	if suffix == "" {
		return fmt.Errorf("backup suffix cannot be empty")
	}
	if strings.ContainsAny(suffix, "/\\") {
		return fmt.Errorf("backup suffix cannot contain path separators: %s", suffix)
	}
	return nil
}
