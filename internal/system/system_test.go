package system

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	callArgs := make([]interface{}, 0, len(args)+1)
	callArgs = append(callArgs, name)
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	result := m.Called(callArgs...)
	return result.String(0), result.Error(1)
}

func TestRestartService(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "systemctl", "restart", "dhcpcd").Return("", nil).Once()

	err := NewServiceManager(runner).RestartService(context.Background(), "dhcpcd")
	require.NoError(t, err)
	runner.AssertExpectations(t)
}

func TestRestartServiceFailureCarriesOutput(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "systemctl", "restart", "dhcpcd").
		Return("Failed to restart dhcpcd.service: Unit dhcpcd.service not found.\n", errors.New("exit status 5"))

	err := NewServiceManager(runner).RestartService(context.Background(), "dhcpcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to restart service dhcpcd")
	assert.Contains(t, err.Error(), "Unit dhcpcd.service not found.")
	runner.AssertExpectations(t)
}

func TestIsServiceActive(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "systemctl", "is-active", "--quiet", "dhcpcd").Return("", nil)

	active, err := NewServiceManager(runner).IsServiceActive(context.Background(), "dhcpcd")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestIsServiceActiveInactive(t *testing.T) {
	// A real non-zero exit from a real process
	exitErr := exec.Command("false").Run()
	require.Error(t, exitErr)

	runner := new(mockRunner)
	runner.On("Run", "systemctl", "is-active", "--quiet", "dhcpcd").Return("", exitErr)

	active, err := NewServiceManager(runner).IsServiceActive(context.Background(), "dhcpcd")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestIsServiceActiveRunnerError(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "systemctl", "is-active", "--quiet", "dhcpcd").Return("", errors.New("executable file not found"))

	_, err := NewServiceManager(runner).IsServiceActive(context.Background(), "dhcpcd")
	assert.Error(t, err)
}

func TestCheckService(t *testing.T) {
	exitErr := exec.Command("false").Run()
	require.Error(t, exitErr)

	tests := []struct {
		name       string
		runErr     error
		wantOK     bool
		wantDetail string
	}{
		{"active", nil, true, ""},
		{"inactive", exitErr, false, "not active"},
		{"systemctl missing", errors.New("executable file not found"), false, "executable file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			runner.On("Run", "systemctl", "is-active", "--quiet", "dhcpcd").Return("", tt.runErr)

			result := NewServiceManager(runner).CheckService(context.Background(), "dhcpcd")
			assert.Equal(t, CheckService, result.Check)
			assert.Equal(t, "dhcpcd", result.Target)
			assert.Equal(t, tt.wantOK, result.OK)
			assert.Contains(t, result.Detail, tt.wantDetail)
			runner.AssertExpectations(t)
		})
	}
}

func TestGetServiceStatusKeepsOutputOnFailure(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", "systemctl", "status", "dhcpcd", "--no-pager", "-l").
		Return("● dhcpcd.service - DHCP Client Daemon\n   Active: failed", errors.New("exit status 3"))

	out, err := NewServiceManager(runner).GetServiceStatus(context.Background(), "dhcpcd")
	assert.Error(t, err)
	assert.Contains(t, out, "Active: failed")
}

func TestExecCommandRunner(t *testing.T) {
	out, err := NewCommandRunner().Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimSpace(out))
}

func TestExecCommandRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCommandRunner().Run(ctx, "sleep", "5")
	assert.Error(t, err)
}

func fakeNetwork(addrs []string, pingErr error, dnsErrs map[string]error) *Network {
	n := NewNetwork()
	n.ListAddrs = func(iface string) ([]*net.IPNet, error) {
		var out []*net.IPNet
		for _, a := range addrs {
			ip, ipNet, err := net.ParseCIDR(a)
			if err != nil {
				return nil, err
			}
			ipNet.IP = ip
			out = append(out, ipNet)
		}
		return out, nil
	}
	n.Ping = func(host string, timeout time.Duration) error { return pingErr }
	n.Resolve = func(ctx context.Context, server, name string, timeout time.Duration) error {
		return dnsErrs[server]
	}
	return n
}

func TestCheckInterfaceAddress(t *testing.T) {
	tests := []struct {
		name   string
		addrs  []string
		cidr   string
		wantOK bool
	}{
		{"exact match", []string{"192.168.1.42/24"}, "192.168.1.42/24", true},
		{"one of several", []string{"10.0.0.2/8", "192.168.1.42/24"}, "192.168.1.42/24", true},
		{"wrong prefix", []string{"192.168.1.42/16"}, "192.168.1.42/24", false},
		{"wrong address", []string{"192.168.1.50/24"}, "192.168.1.42/24", false},
		{"no addresses", nil, "192.168.1.42/24", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fakeNetwork(tt.addrs, nil, nil).CheckInterfaceAddress("eth0", tt.cidr)
			assert.Equal(t, tt.wantOK, result.OK, result.String())
			assert.Equal(t, CheckAddress, result.Check)
		})
	}
}

func TestCheckInterfaceAddressListError(t *testing.T) {
	n := NewNetwork()
	n.ListAddrs = func(iface string) ([]*net.IPNet, error) {
		return nil, errors.New("failed to get interface eth9: Link not found")
	}

	result := n.CheckInterfaceAddress("eth9", "192.168.1.42/24")
	assert.False(t, result.OK)
	assert.Contains(t, result.Detail, "Link not found")
}

func TestVerify(t *testing.T) {
	n := fakeNetwork(
		[]string{"192.168.1.42/24"},
		errors.New("no reply from 192.168.1.1"),
		map[string]error{"1.1.1.1": errors.New("i/o timeout")},
	)

	results := n.Verify(context.Background(), "eth0", "192.168.1.42/24", "192.168.1.1", []string{"8.8.8.8", "1.1.1.1"})
	require.Len(t, results, 4)

	assert.True(t, results[0].OK)
	assert.Equal(t, CheckGateway, results[1].Check)
	assert.False(t, results[1].OK)
	assert.Equal(t, "8.8.8.8", results[2].Target)
	assert.True(t, results[2].OK)
	assert.False(t, results[3].OK)
	assert.Equal(t, "dns 1.1.1.1: FAILED (i/o timeout)", results[3].String())
}

func TestVerifyCancelledSkipsDNS(t *testing.T) {
	called := false
	n := fakeNetwork([]string{"192.168.1.42/24"}, nil, nil)
	n.Resolve = func(ctx context.Context, server, name string, timeout time.Duration) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := n.Verify(ctx, "eth0", "192.168.1.42/24", "192.168.1.1", []string{"8.8.8.8"})
	require.Len(t, results, 3)
	assert.False(t, results[2].OK)
	assert.False(t, called)
}
