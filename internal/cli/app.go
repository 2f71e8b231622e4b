// Package cli orchestrates a single pi-static-ip run: it resolves the
// desired stanza (prompting when interactive), drives the pure stanza
// editor, and sequences the side effects around it (backup, write,
// daemon restart, reporting) in the order that keeps the original file
// intact on early failure.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zoro11031/pi-static-ip/internal/common"
	"github.com/zoro11031/pi-static-ip/internal/config"
	"github.com/zoro11031/pi-static-ip/internal/logging"
	"github.com/zoro11031/pi-static-ip/internal/metrics"
	"github.com/zoro11031/pi-static-ip/internal/stanza"
	"github.com/zoro11031/pi-static-ip/internal/system"
	"github.com/zoro11031/pi-static-ip/internal/ui"
)

// ServiceController restarts and inspects the network daemon.
type ServiceController interface {
	RestartService(ctx context.Context, serviceName string) error
	CheckService(ctx context.Context, serviceName string) system.CheckResult
	GetServiceStatus(ctx context.Context, serviceName string) (string, error)
}

// Verifier checks the live network state against a configuration.
type Verifier interface {
	Verify(ctx context.Context, iface, cidr, router string, servers []string) []system.CheckResult
}

// App holds all dependencies needed for one run
type App struct {
	Settings config.Settings
	UI       *ui.UI
	FS       system.FileSystemManager
	Services ServiceController
	Network  Verifier
	Store    *config.Store
	Metrics  *metrics.Recorder
	Log      *logrus.Logger
	Now      func() time.Time
}

// NewApp creates an App wired to the local host.
func NewApp(settings config.Settings, u *ui.UI, log *logrus.Logger) *App {
	if u == nil {
		u = ui.New()
	}
	if log == nil {
		log = logging.New(settings.LogLevel)
	}
	if settings.NonInteractive {
		u.SetNonInteractive(true)
	}

	return &App{
		Settings: settings,
		UI:       u,
		FS:       system.NewFileSystem(),
		Services: system.NewServiceManager(nil),
		Network:  system.NewNetwork(),
		Store:    config.NewStore(settings.StateFile),
		Metrics:  metrics.NewRecorder(),
		Log:      log,
		Now:      time.Now,
	}
}

// resolveStanza returns the stanza for this run. Interactively, a missing
// address or router is prompted for, defaulting to the last applied value.
// No side effects happen here.
func (a *App) resolveStanza() (stanza.Stanza, error) {
	s := a.Settings

	if s.StaticIP == "" || s.RouterIP == "" {
		if a.UI.IsNonInteractive() {
			return stanza.Stanza{}, common.NewInvalidInputError(common.StepValidate,
				"static IP (--ip) and router (--router) are required in non-interactive mode", nil)
		}

		a.UI.Step(fmt.Sprintf("Static address for %s", s.Interface))

		ip, err := a.promptValue("Static IP address with prefix (e.g. 192.168.1.42/24)",
			s.StaticIP, config.StateLastStaticIP, common.ValidateCIDR)
		if err != nil {
			return stanza.Stanza{}, err
		}

		router, err := a.promptValue("Router (gateway) address",
			s.RouterIP, config.StateLastRouterIP, common.ValidateIP)
		if err != nil {
			return stanza.Stanza{}, err
		}

		s = s.With("", ip, router, nil)
	}

	return s.Stanza(), nil
}

// promptValue asks for a value, defaulting to current or, when empty, to
// the value remembered under stateKey.
func (a *App) promptValue(prompt, current, stateKey string, validate func(string) error) (string, error) {
	def := current
	if def == "" && a.Store != nil {
		def = a.Store.GetOrDefault(stateKey, "")
	}

	value, err := a.UI.PromptInputWithValidation(prompt, def, validate)
	if err != nil {
		return "", common.NewInvalidInputError(common.StepValidate, "failed to read "+strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(value), nil
}

// newEditor builds the stanza editor for the configured body mode.
func (a *App) newEditor() (*stanza.Editor, error) {
	return stanza.NewEditor(a.Settings.EditorOptions())
}

// readDocument reads the target file. A missing file is an IOError.
func (a *App) readDocument() (stanza.Document, error) {
	path := a.Settings.ConfigPath

	content, err := a.FS.ReadFile(path)
	if err != nil {
		return nil, common.NewIOError(common.StepRead, fmt.Sprintf("cannot read %s", path), err)
	}

	a.Log.WithFields(logrus.Fields{
		"path":  path,
		"bytes": len(content),
	}).Debug("Read config file")

	return stanza.ParseDocument(string(content)), nil
}

// plan validates st, reads the target and computes its new content.
func (a *App) plan(st stanza.Stanza) (before, after stanza.Document, err error) {
	editor, err := a.newEditor()
	if err != nil {
		return nil, nil, err
	}

	// Validate before touching the file so bad input never costs a read.
	if err := st.Validate(); err != nil {
		return nil, nil, err
	}

	before, err = a.readDocument()
	if err != nil {
		return nil, nil, err
	}

	after, err = editor.Apply(before, st.Interface, st)
	if err != nil {
		return nil, nil, err
	}

	a.Log.WithFields(logrus.Fields{
		"interface": st.Interface,
		"removed":   len(editor.Find(before, st.Interface)),
		"mode":      editor.Options().Body.String(),
	}).Debug("Computed new config")

	return before, after, nil
}

// warnRouterOutsideSubnet flags a gateway that is not on the link; dhcpcd
// accepts it, but it is usually a typo.
func (a *App) warnRouterOutsideSubnet(st stanza.Stanza) {
	if !common.RouterInSubnet(st.IPAddress, st.Router) {
		a.UI.Warningf("Router %s is not inside %s", st.Router, st.IPAddress)
	}
}

// observe records a finished command in the metrics textfile when one is
// configured. Failures are logged and otherwise ignored.
func (a *App) observe(command string, err error) {
	if a.Settings.MetricsFile == "" || a.Metrics == nil {
		return
	}

	a.Metrics.ObserveRun(command, a.Now(), err)
	if werr := a.Metrics.WriteTextfile(a.Settings.MetricsFile); werr != nil {
		a.Log.WithError(werr).Warn("Failed to write metrics")
	}
}
