package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zoro11031/pi-static-ip/internal/common"
	"github.com/zoro11031/pi-static-ip/internal/config"
	"github.com/zoro11031/pi-static-ip/internal/logging"
	"github.com/zoro11031/pi-static-ip/internal/metrics"
	"github.com/zoro11031/pi-static-ip/internal/stanza"
	"github.com/zoro11031/pi-static-ip/internal/system"
	"github.com/zoro11031/pi-static-ip/internal/ui"
)

const testConfigPath = "/etc/dhcpcd.conf"

const originalConf = "foo=bar\n" +
	"interface eth0\n" +
	"static ip_address=10.0.0.5/24\n" +
	"static routers=10.0.0.1\n" +
	"static domain_name_servers=8.8.8.8\n" +
	"\n" +
	"other=1\n"

const appliedConf = "foo=bar\n" +
	"other=1\n" +
	"\n" +
	"interface eth0\n" +
	"static ip_address=192.168.1.42/24\n" +
	"static routers=192.168.1.1\n" +
	"static domain_name_servers=8.8.8.8 1.1.1.1\n"

type mockServices struct {
	mock.Mock
}

func (m *mockServices) RestartService(ctx context.Context, serviceName string) error {
	return m.Called(serviceName).Error(0)
}

func (m *mockServices) CheckService(ctx context.Context, serviceName string) system.CheckResult {
	return m.Called(serviceName).Get(0).(system.CheckResult)
}

func (m *mockServices) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	args := m.Called(serviceName)
	return args.String(0), args.Error(1)
}

type fakeVerifier struct {
	calls   [][]string
	results []system.CheckResult
}

func (f *fakeVerifier) Verify(ctx context.Context, iface, cidr, router string, servers []string) []system.CheckResult {
	call := append([]string{iface, cidr, router}, servers...)
	f.calls = append(f.calls, call)
	return f.results
}

type testEnv struct {
	app      *App
	fs       *system.MockFileSystem
	services *mockServices
	network  *fakeVerifier
	out      *bytes.Buffer
	dir      string
}

func testSettings(dir string) config.Settings {
	return config.Settings{
		Interface:      "eth0",
		StaticIP:       "192.168.1.42/24",
		RouterIP:       "192.168.1.1",
		DNS:            []string{"8.8.8.8", "1.1.1.1"},
		ConfigPath:     testConfigPath,
		BackupSuffix:   ".bak",
		BackupPolicy:   system.BackupOverwrite,
		BodyMode:       stanza.BodyStructural,
		BodyLines:      stanza.DefaultBodyLines,
		Service:        "dhcpcd",
		NonInteractive: true,
		StateFile:      filepath.Join(dir, "state.conf"),
		LogLevel:       "warn",
	}
}

func newTestEnv(t *testing.T, mutate func(*config.Settings)) *testEnv {
	t.Helper()
	color.NoColor = true

	dir := t.TempDir()
	settings := testSettings(dir)
	if mutate != nil {
		mutate(&settings)
	}

	fs := system.NewMockFileSystem()
	fs.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	fs.AddFile(testConfigPath, originalConf, 0644)

	var out bytes.Buffer
	env := &testEnv{
		fs:       fs,
		services: new(mockServices),
		network:  &fakeVerifier{},
		out:      &out,
		dir:      dir,
	}
	env.app = &App{
		Settings: settings,
		UI:       ui.NewWithWriter(&out),
		FS:       fs,
		Services: env.services,
		Network:  env.network,
		Store:    config.NewStore(settings.StateFile),
		Metrics:  metrics.NewRecorder(),
		Log:      logging.Discard(),
		Now:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return env
}

func (e *testEnv) content(t *testing.T) string {
	t.Helper()
	content, ok := e.fs.Content(testConfigPath)
	require.True(t, ok, "config file vanished")
	return content
}

func TestApplyWritesStanzaAndRestarts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.services.On("RestartService", "dhcpcd").Return(nil).Once()

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, appliedConf, env.content(t))
	assert.True(t, result.Changed)
	assert.True(t, result.Restarted)
	assert.Equal(t, testConfigPath+".bak", result.BackupPath)

	backup, ok := env.fs.Content(testConfigPath + ".bak")
	require.True(t, ok)
	assert.Equal(t, originalConf, backup)

	perms, err := env.fs.GetPermissions(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), perms)

	// Backup is taken before the target is written
	assert.Equal(t, []string{testConfigPath + ".bak", testConfigPath}, env.fs.Writes)

	out := env.out.String()
	assert.Contains(t, out, "Restarted dhcpcd")
	assert.Contains(t, out, "192.168.1.42/24")
	assert.Contains(t, out, "8.8.8.8 1.1.1.1")

	assert.Equal(t, "192.168.1.42/24", env.app.Store.GetOrDefault(config.StateLastStaticIP, ""))
	assert.Equal(t, "8.8.8.8 1.1.1.1", env.app.Store.GetOrDefault(config.StateLastDNS, ""))
	assert.Equal(t, testConfigPath+".bak", env.app.Store.GetOrDefault(config.StateLastBackup, ""))

	env.services.AssertExpectations(t)
}

func TestApplyBackupFailureLeavesFileUntouched(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fs.FailBackup = errors.New("read-only file system")

	_, err := env.app.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, common.IsIOError(err))
	step, _ := common.StepOf(err)
	assert.Equal(t, common.StepBackup, step)

	assert.Equal(t, originalConf, env.content(t))
	assert.Empty(t, env.fs.Writes)
	env.services.AssertNotCalled(t, "RestartService", mock.Anything)
}

func TestApplyWriteFailureKeepsBackup(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fs.FailWrite = errors.New("no space left on device")

	_, err := env.app.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, common.IsIOError(err))
	step, _ := common.StepOf(err)
	assert.Equal(t, common.StepWrite, step)
	assert.Contains(t, err.Error(), testConfigPath+".bak")

	assert.Equal(t, originalConf, env.content(t))
	_, ok := env.fs.Content(testConfigPath + ".bak")
	assert.True(t, ok)
	env.services.AssertNotCalled(t, "RestartService", mock.Anything)
}

func TestApplyRestartFailureKeepsEdit(t *testing.T) {
	env := newTestEnv(t, nil)
	env.services.On("RestartService", "dhcpcd").Return(errors.New("exit status 5")).Once()
	env.services.On("GetServiceStatus", "dhcpcd").
		Return("● dhcpcd.service - DHCP Client Daemon\n   Active: failed (Result: exit-code)\n", errors.New("exit status 3")).Once()

	result, err := env.app.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, common.IsServiceRestartError(err))
	assert.Contains(t, env.out.String(), "Active: failed (Result: exit-code)")

	require.NotNil(t, result)
	assert.True(t, result.Changed)
	assert.False(t, result.Restarted)
	assert.Equal(t, appliedConf, env.content(t))
	assert.Contains(t, env.out.String(), "could not be restarted")

	// The edit happened, so the values are still remembered
	assert.Equal(t, "192.168.1.42/24", env.app.Store.GetOrDefault(config.StateLastStaticIP, ""))
}

func TestApplyInvalidInputHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Settings)
	}{
		{"empty interface", func(s *config.Settings) { s.Interface = "" }},
		{"interface with space", func(s *config.Settings) { s.Interface = "eth 0" }},
		{"empty dns", func(s *config.Settings) { s.DNS = nil }},
		{"ip without prefix", func(s *config.Settings) { s.StaticIP = "192.168.1.42" }},
		{"bad router", func(s *config.Settings) { s.RouterIP = "192.168.1" }},
		{"missing ip non-interactive", func(s *config.Settings) { s.StaticIP = "" }},
		{"negative body lines", func(s *config.Settings) { s.BodyLines = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.mutate)
			env.fs.FailRead = errors.New("read must not happen")

			_, err := env.app.Apply(context.Background())
			require.Error(t, err)
			assert.True(t, common.IsInvalidInput(err), "got %v", err)

			assert.Empty(t, env.fs.Writes)
			assert.Equal(t, originalConf, env.content(t))
			env.services.AssertNotCalled(t, "RestartService", mock.Anything)
			_, statErr := os.Stat(env.app.Store.FilePath())
			assert.True(t, os.IsNotExist(statErr), "state file must not be written")
		})
	}
}

func TestApplyMissingConfigFile(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.ConfigPath = "/etc/missing.conf" })

	_, err := env.app.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, common.IsIOError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	step, _ := common.StepOf(err)
	assert.Equal(t, common.StepRead, step)
}

func TestApplyUpToDateSkipsSideEffects(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fs.AddFile(testConfigPath, appliedConf, 0644)

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Empty(t, env.fs.Writes)
	assert.Contains(t, env.out.String(), "already up to date")
	env.services.AssertNotCalled(t, "RestartService", mock.Anything)
}

func TestApplyForceRewritesUnchangedFile(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.Force = true })
	env.fs.AddFile(testConfigPath, appliedConf, 0644)
	env.services.On("RestartService", "dhcpcd").Return(nil).Once()

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, appliedConf, env.content(t))
	env.services.AssertExpectations(t)
}

func TestApplyIsIdempotentAcrossRuns(t *testing.T) {
	env := newTestEnv(t, nil)
	env.services.On("RestartService", "dhcpcd").Return(nil).Once()

	_, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	first := env.content(t)

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, first, env.content(t))
	env.services.AssertExpectations(t)
}

func TestApplyDryRunHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.DryRun = true })

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Contains(t, result.Diff, "--- /etc/dhcpcd.conf\n")
	assert.Contains(t, result.Diff, "-static ip_address=10.0.0.5/24\n")
	assert.Contains(t, result.Diff, "+static ip_address=192.168.1.42/24\n")
	assert.Contains(t, env.out.String(), "+static routers=192.168.1.1")

	assert.Empty(t, env.fs.Writes)
	assert.Equal(t, originalConf, env.content(t))
	env.services.AssertNotCalled(t, "RestartService", mock.Anything)
}

func TestApplyNoRestart(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.NoRestart = true })

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.Restarted)
	assert.Contains(t, env.out.String(), "systemctl restart dhcpcd")
	env.services.AssertNotCalled(t, "RestartService", mock.Anything)
}

func TestApplyTimestampedBackup(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) {
		s.BackupPolicy = system.BackupTimestamped
		s.NoRestart = true
	})

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testConfigPath+".bak.20240501_120000", result.BackupPath)
}

func TestApplyWarnsWhenRouterOutsideSubnet(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) {
		s.RouterIP = "10.1.1.1"
		s.NoRestart = true
	})

	_, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "Router 10.1.1.1 is not inside 192.168.1.42/24")
}

func TestApplyWritesMetrics(t *testing.T) {
	var metricsFile string
	env := newTestEnv(t, nil)
	metricsFile = filepath.Join(env.dir, "pi_static_ip.prom")
	env.app.Settings.MetricsFile = metricsFile
	env.services.On("RestartService", "dhcpcd").Return(nil).Once()

	_, err := env.app.Apply(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `pi_static_ip_last_run_success{command="apply"} 1`)
	assert.Contains(t, string(content), "pi_static_ip_config_changed 1")
	assert.Contains(t, string(content), "pi_static_ip_service_restart_success 1")
}

// answerPrompts accepts every default and answers confirm with confirm.
func answerPrompts(confirm bool, asked *[]string) ui.AskFunc {
	return func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
		switch q := p.(type) {
		case *survey.Input:
			*asked = append(*asked, q.Message)
			*(response.(*string)) = q.Default
		case *survey.Confirm:
			*asked = append(*asked, q.Message)
			*(response.(*bool)) = confirm
		}
		return nil
	}
}

func TestApplyInteractiveUsesRememberedDefaults(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) {
		s.NonInteractive = false
		s.StaticIP = ""
		s.RouterIP = ""
		s.NoRestart = true
	})
	require.NoError(t, env.app.Store.SetMany(map[string]string{
		config.StateLastStaticIP: "192.168.1.77/24",
		config.StateLastRouterIP: "192.168.1.254",
	}))

	var asked []string
	env.app.UI.SetAsk(answerPrompts(true, &asked))

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Len(t, asked, 3, "two inputs and one confirmation")

	content := env.content(t)
	assert.Contains(t, content, "static ip_address=192.168.1.77/24\n")
	assert.Contains(t, content, "static routers=192.168.1.254\n")
}

func TestApplyInteractiveDeclined(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.NonInteractive = false })

	var asked []string
	env.app.UI.SetAsk(answerPrompts(false, &asked))

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Declined)
	assert.False(t, result.Changed)
	assert.Empty(t, env.fs.Writes)
	assert.Equal(t, originalConf, env.content(t))
}

func TestApplyAssumeYesSkipsConfirmation(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) {
		s.NonInteractive = false
		s.AssumeYes = true
		s.NoRestart = true
	})

	var asked []string
	env.app.UI.SetAsk(answerPrompts(false, &asked))

	result, err := env.app.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Empty(t, asked)
}
