package cli

import (
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/zoro11031/pi-static-ip/internal/stanza"
)

// Diff prints the change Apply would make, without side effects. It
// returns the unified diff, empty when the file is already up to date.
func (a *App) Diff(ctx context.Context) (diff string, err error) {
	defer func() { a.observe("diff", err) }()

	st, err := a.resolveStanza()
	if err != nil {
		return "", err
	}

	before, after, err := a.plan(st)
	if err != nil {
		return "", err
	}
	a.warnRouterOutsideSubnet(st)

	diff, err = unifiedDiff(a.Settings.ConfigPath, before, after)
	if err != nil {
		return "", err
	}
	a.showDiff(diff)
	return diff, nil
}

func (a *App) showDiff(diff string) {
	if diff == "" {
		a.UI.Infof("No changes to %s", a.Settings.ConfigPath)
		return
	}
	a.UI.Diff(diff)
}

func unifiedDiff(path string, before, after stanza.Document) (string, error) {
	if before.Equal(after) {
		return "", nil
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.String()),
		B:        difflib.SplitLines(after.String()),
		FromFile: path,
		ToFile:   path + " (new)",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to generate diff: %w", err)
	}
	return text, nil
}
