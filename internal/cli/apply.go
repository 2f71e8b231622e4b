package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zoro11031/pi-static-ip/internal/common"
	"github.com/zoro11031/pi-static-ip/internal/config"
	"github.com/zoro11031/pi-static-ip/internal/stanza"
)

// ApplyResult describes what an apply run did.
type ApplyResult struct {
	Stanza     stanza.Stanza
	Changed    bool
	Declined   bool
	BackupPath string
	Restarted  bool
	Diff       string // set for dry runs
}

// Apply installs the configured stanza: validate, read, compute, back up,
// write, restart the daemon, then report. A backup failure aborts before
// the file is touched. A restart failure is returned as a
// ServiceRestartError after the summary; the written file is kept.
func (a *App) Apply(ctx context.Context) (result *ApplyResult, err error) {
	defer func() { a.observe("apply", err) }()

	s := a.Settings

	st, err := a.resolveStanza()
	if err != nil {
		return nil, err
	}

	before, after, err := a.plan(st)
	if err != nil {
		return nil, err
	}
	a.warnRouterOutsideSubnet(st)

	result = &ApplyResult{Stanza: st}

	if s.DryRun {
		diff, err := unifiedDiff(s.ConfigPath, before, after)
		if err != nil {
			return nil, err
		}
		result.Diff = diff
		a.showDiff(diff)
		return result, nil
	}

	if before.Equal(after) && !s.Force {
		a.UI.Successf("%s is already up to date for %s", s.ConfigPath, st.Interface)
		a.recordChange(false)
		return result, nil
	}

	if !a.UI.IsNonInteractive() && !s.AssumeYes {
		diff, err := unifiedDiff(s.ConfigPath, before, after)
		if err != nil {
			return nil, err
		}
		a.showDiff(diff)

		ok, err := a.UI.PromptYesNo(fmt.Sprintf("Write these changes to %s?", s.ConfigPath), true)
		if err != nil {
			return nil, common.NewInvalidInputError(common.StepValidate, "failed to read confirmation", err)
		}
		if !ok {
			a.UI.Warning("Aborted; no changes made")
			result.Declined = true
			return result, nil
		}
	}

	perms, err := a.FS.GetPermissions(s.ConfigPath)
	if err != nil {
		return nil, common.NewIOError(common.StepRead, fmt.Sprintf("cannot stat %s", s.ConfigPath), err)
	}

	backupPath, err := a.FS.BackupFile(s.ConfigPath, s.BackupSuffix, s.BackupPolicy)
	if err != nil {
		return nil, common.NewIOError(common.StepBackup,
			fmt.Sprintf("cannot back up %s; the file was not modified", s.ConfigPath), err)
	}
	result.BackupPath = backupPath
	a.Log.WithFields(logrus.Fields{"path": s.ConfigPath, "backup": backupPath}).Debug("Backed up config file")

	if err := a.FS.WriteFile(s.ConfigPath, after.Bytes(), perms); err != nil {
		return nil, common.NewIOError(common.StepWrite,
			fmt.Sprintf("cannot write %s; the previous version is saved at %s", s.ConfigPath, backupPath), err)
	}
	result.Changed = true
	a.recordChange(true)
	a.Log.WithFields(logrus.Fields{"path": s.ConfigPath, "bytes": len(after.Bytes())}).Debug("Wrote config file")

	var restartErr error
	if s.NoRestart {
		a.UI.Infof("Skipping restart; run 'systemctl restart %s' to apply the change", s.Service)
	} else {
		restartErr = a.restart(ctx)
		result.Restarted = restartErr == nil
	}

	a.printSummary(st, backupPath)
	a.rememberApplied(st, backupPath)

	if restartErr != nil {
		return result, restartErr
	}
	return result, nil
}

// restart restarts the daemon, mapping failure to ServiceRestartError.
func (a *App) restart(ctx context.Context) error {
	s := a.Settings
	a.UI.Infof("Restarting %s...", s.Service)

	err := a.Services.RestartService(ctx, s.Service)
	if a.Settings.MetricsFile != "" && a.Metrics != nil {
		a.Metrics.ObserveRestart(err == nil)
	}
	if err != nil {
		a.UI.Errorf("%s was written but %s could not be restarted", s.ConfigPath, s.Service)
		a.showServiceStatus(ctx)
		return common.NewServiceRestartError(fmt.Sprintf("cannot restart %s", s.Service), err)
	}

	a.UI.Successf("Restarted %s", s.Service)
	return nil
}

// showServiceStatus prints systemctl status output to help diagnose a
// failed restart. systemctl exits non-zero for a failed unit, so the
// output is shown whenever there is any.
func (a *App) showServiceStatus(ctx context.Context) {
	status, err := a.Services.GetServiceStatus(ctx, a.Settings.Service)
	if status = strings.TrimSpace(status); status == "" {
		if err != nil {
			a.Log.WithError(err).Debug("Failed to get service status")
		}
		return
	}
	a.UI.Print(status)
}

func (a *App) recordChange(changed bool) {
	if a.Settings.MetricsFile != "" && a.Metrics != nil {
		a.Metrics.ObserveChange(changed)
	}
}

func (a *App) printSummary(st stanza.Stanza, backupPath string) {
	a.UI.Header("Static IP configured")
	a.UI.KeyValue("Interface", st.Interface)
	a.UI.KeyValue("IP address", st.IPAddress)
	a.UI.KeyValue("Router", st.Router)
	a.UI.KeyValue("DNS", strings.Join(st.DNSServers, " "))
	a.UI.KeyValue("Config", a.Settings.ConfigPath)
	a.UI.KeyValue("Backup", backupPath)
}

// rememberApplied stores the applied values as the next run's prompt
// defaults. Failure only costs the defaults, so it is logged, not returned.
func (a *App) rememberApplied(st stanza.Stanza, backupPath string) {
	if a.Store == nil {
		return
	}

	err := a.Store.SetMany(map[string]string{
		config.StateLastInterface: st.Interface,
		config.StateLastStaticIP:  st.IPAddress,
		config.StateLastRouterIP:  st.Router,
		config.StateLastDNS:       strings.Join(st.DNSServers, " "),
		config.StateLastAppliedAt: a.Now().Format(time.RFC3339),
		config.StateLastBackup:    backupPath,
	})
	if err != nil {
		a.Log.WithError(err).WithField("path", a.Store.FilePath()).Warn("Failed to save last applied values")
	}
}
