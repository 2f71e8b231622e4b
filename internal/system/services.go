package system

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ServiceManager drives systemd units through systemctl.
type ServiceManager struct {
	runner CommandRunner
}

// NewServiceManager creates a ServiceManager. A nil runner selects the
// default exec runner.
func NewServiceManager(runner CommandRunner) *ServiceManager {
	if runner == nil {
		runner = NewCommandRunner()
	}
	return &ServiceManager{runner: runner}
}

// RestartService restarts a service
func (m *ServiceManager) RestartService(ctx context.Context, serviceName string) error {
	output, err := m.runner.Run(ctx, "systemctl", "restart", serviceName)
	if err != nil {
		return fmt.Errorf("failed to restart service %s: %w\nOutput: %s", serviceName, err, strings.TrimSpace(output))
	}
	return nil
}

// IsServiceActive checks if a service is currently active
func (m *ServiceManager) IsServiceActive(ctx context.Context, serviceName string) (bool, error) {
	_, err := m.runner.Run(ctx, "systemctl", "is-active", "--quiet", serviceName)
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() != 0 {
		// systemctl is-active returns non-zero if inactive
		return false, nil
	}

	return false, fmt.Errorf("failed to check service status: %w", err)
}

// CheckService reports whether serviceName is active as a CheckResult.
func (m *ServiceManager) CheckService(ctx context.Context, serviceName string) CheckResult {
	result := CheckResult{Check: CheckService, Target: serviceName}

	active, err := m.IsServiceActive(ctx, serviceName)
	switch {
	case err != nil:
		result.Detail = err.Error()
	case !active:
		result.Detail = "not active"
	default:
		result.OK = true
	}
	return result
}

// GetServiceStatus returns the status output for a service
func (m *ServiceManager) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	// systemctl status returns non-zero for inactive services; the output
	// is still wanted in that case
	return m.runner.Run(ctx, "systemctl", "status", serviceName, "--no-pager", "-l")
}
