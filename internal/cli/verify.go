package cli

import (
	"context"
	"fmt"

	"github.com/zoro11031/pi-static-ip/internal/common"
	"github.com/zoro11031/pi-static-ip/internal/stanza"
	"github.com/zoro11031/pi-static-ip/internal/system"
)

// Verify checks that the daemon is active, the interface carries the
// configured address, the router answers and every DNS server resolves. Values not given in the
// settings are taken from the interface's stanza in the target file.
// Failed checks are reported as warnings; only missing input is an error.
func (a *App) Verify(ctx context.Context) (results []system.CheckResult, err error) {
	defer func() { a.observe("verify", err) }()

	st, err := a.verifyTarget()
	if err != nil {
		return nil, err
	}

	a.UI.Step(fmt.Sprintf("Verifying %s", st.Interface))
	results = append(results, a.Services.CheckService(ctx, a.Settings.Service))
	results = append(results, a.Network.Verify(ctx, st.Interface, st.IPAddress, st.Router, st.DNSServers)...)

	failed := 0
	for _, r := range results {
		if a.Settings.MetricsFile != "" && a.Metrics != nil {
			a.Metrics.ObserveCheck(r.Check, r.Target, r.OK)
		}
		if r.OK {
			a.UI.Success(r.String())
			continue
		}
		failed++
		a.UI.Warning(r.String())
	}

	if failed == 0 {
		a.UI.Successf("All %d checks passed", len(results))
	} else {
		a.UI.Warningf("%d of %d checks failed", failed, len(results))
	}
	return results, nil
}

// verifyTarget merges explicit settings over the stanza found in the file.
func (a *App) verifyTarget() (stanza.Stanza, error) {
	s := a.Settings
	st := s.Stanza()

	if st.IPAddress == "" || st.Router == "" {
		doc, err := a.readDocument()
		if err != nil {
			return stanza.Stanza{}, err
		}
		found, ok := stanza.Lookup(doc, s.Interface)
		if !ok {
			return stanza.Stanza{}, common.NewInvalidInputError(common.StepValidate,
				fmt.Sprintf("no static configuration for %s in %s; pass --ip and --router", s.Interface, s.ConfigPath), nil)
		}
		if st.IPAddress == "" {
			st.IPAddress = found.IPAddress
		}
		if st.Router == "" {
			st.Router = found.Router
		}
		if len(found.DNSServers) > 0 && !s.DNSExplicit {
			st.DNSServers = found.DNSServers
		}
	}

	if err := st.Validate(); err != nil {
		return stanza.Stanza{}, err
	}
	return st, nil
}
