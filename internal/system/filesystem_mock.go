package system

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileSystem is an in-memory FileSystemManager for testing purposes.
// Individual operations can be made to fail through the Fail* fields.
type MockFileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
	modes map[string]os.FileMode

	// Now stamps timestamped backups.
	Now func() time.Time

	FailRead   error
	FailWrite  error // WriteFile only; copies still succeed
	FailBackup error

	// Writes records every path written or copied to, in order.
	Writes []string
}

// NewMockFileSystem creates a new, empty MockFileSystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files: make(map[string][]byte),
		modes: make(map[string]os.FileMode),
		Now:   time.Now,
	}
}

// AddFile seeds a file.
func (m *MockFileSystem) AddFile(path string, content string, perms os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = []byte(content)
	m.modes[path] = perms
}

// Content returns the current content of path and whether it exists.
func (m *MockFileSystem) Content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	return string(content), ok
}

// Paths returns every stored path, sorted.
func (m *MockFileSystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *MockFileSystem) FileExists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *MockFileSystem) GetPermissions(path string) (os.FileMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode, ok := m.modes[path]
	if !ok {
		return 0, fmt.Errorf("failed to stat %s: %w", path, os.ErrNotExist)
	}
	return mode, nil
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, m.FailRead)
	}
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("failed to read %s: %w", path, os.ErrNotExist)
	}
	return append([]byte(nil), content...), nil
}

func (m *MockFileSystem) WriteFile(path string, content []byte, perms os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		return fmt.Errorf("failed to move file to %s: %w", path, m.FailWrite)
	}
	m.write(path, content, perms)
	return nil
}

// write stores content; caller must hold m.mu.
func (m *MockFileSystem) write(path string, content []byte, perms os.FileMode) {
	m.files[path] = append([]byte(nil), content...)
	m.modes[path] = perms
	m.Writes = append(m.Writes, path)
}

func (m *MockFileSystem) CopyFile(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[src]
	if !ok {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, os.ErrNotExist)
	}
	m.write(dst, content, m.modes[src])
	return nil
}

func (m *MockFileSystem) BackupFile(path, suffix string, policy BackupPolicy) (string, error) {
	if m.FailBackup != nil {
		return "", fmt.Errorf("failed to create backup: %w", m.FailBackup)
	}
	backupPath := BackupName(path, suffix, policy, m.Now())
	if err := m.CopyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}

func (m *MockFileSystem) LatestBackup(path, suffix string, policy BackupPolicy) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if policy == BackupOverwrite {
		if _, ok := m.files[path+suffix]; !ok {
			return "", fmt.Errorf("no backup found at %s: %w", path+suffix, os.ErrNotExist)
		}
		return path + suffix, nil
	}

	var candidates []string
	for p := range m.files {
		if strings.HasPrefix(p, path+suffix+".") {
			candidates = append(candidates, p)
		}
	}
	if latest := newestBackup(candidates, path+suffix); latest != "" {
		return latest, nil
	}
	return "", fmt.Errorf("no timestamped backup of %s found: %w", path, os.ErrNotExist)
}
