package stanza

import "strings"

// Parse extracts the static addressing of every interface stanza in doc,
// in document order. Bodies are delimited structurally. Options other than
// ip_address, routers and domain_name_servers are ignored, as are stanzas
// that set none of them.
func Parse(doc Document) []Stanza {
	e := &Editor{opts: DefaultOptions()}

	var stanzas []Stanza
	for i := 0; i < len(doc); i++ {
		name, ok := markerName(doc[i])
		if !ok {
			continue
		}

		end := e.bodyEnd(doc, i)
		s := Stanza{Interface: name}
		found := false
		for _, line := range doc[i+1 : end] {
			key, value, ok := parseStatic(line)
			if !ok {
				continue
			}
			switch key {
			case keyIPAddress:
				s.IPAddress = value
			case keyRouters:
				s.Router = value
			case keyDNSServers:
				s.DNSServers = strings.Fields(value)
			default:
				continue
			}
			found = true
		}
		if found {
			stanzas = append(stanzas, s)
		}
		i = end - 1
	}
	return stanzas
}

// Lookup returns the parsed stanza for iface, if doc has one. When the
// document holds several, the last one wins, matching how dhcpcd applies
// repeated options.
func Lookup(doc Document, iface string) (Stanza, bool) {
	var (
		result Stanza
		found  bool
	)
	for _, s := range Parse(doc) {
		if s.Interface == iface {
			result = s
			found = true
		}
	}
	return result, found
}

// parseStatic splits "static key=value" into its key and value.
func parseStatic(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, staticPrefix) {
		return "", "", false
	}
	key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(trimmed, staticPrefix)), "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}
