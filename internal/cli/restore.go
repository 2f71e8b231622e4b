package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zoro11031/pi-static-ip/internal/common"
)

// Restore copies the most recent backup back over the target file and,
// unless restarts are disabled, restarts the daemon. It only ever runs on
// request; Apply never rolls back by itself.
func (a *App) Restore(ctx context.Context) (backupPath string, err error) {
	defer func() { a.observe("restore", err) }()

	s := a.Settings

	backupPath, err = a.FS.LatestBackup(s.ConfigPath, s.BackupSuffix, s.BackupPolicy)
	if err != nil {
		return "", common.NewIOError(common.StepRestore, fmt.Sprintf("no backup of %s to restore", s.ConfigPath), err)
	}

	if !a.UI.IsNonInteractive() && !s.AssumeYes {
		ok, err := a.UI.PromptYesNo(fmt.Sprintf("Replace %s with %s?", s.ConfigPath, backupPath), false)
		if err != nil {
			return "", common.NewInvalidInputError(common.StepValidate, "failed to read confirmation", err)
		}
		if !ok {
			a.UI.Warning("Aborted; no changes made")
			return "", nil
		}
	}

	if err := a.FS.CopyFile(backupPath, s.ConfigPath); err != nil {
		return "", common.NewIOError(common.StepRestore, fmt.Sprintf("cannot restore %s from %s", s.ConfigPath, backupPath), err)
	}
	a.Log.WithFields(logrus.Fields{"path": s.ConfigPath, "backup": backupPath}).Debug("Restored config file")
	a.UI.Successf("Restored %s from %s", s.ConfigPath, backupPath)

	if s.NoRestart {
		a.UI.Infof("Skipping restart; run 'systemctl restart %s' to apply the change", s.Service)
		return backupPath, nil
	}

	if err := a.restart(ctx); err != nil {
		return backupPath, err
	}
	return backupPath, nil
}
