package system

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"
)

// BackupPolicy selects how backups of the target file are named.
type BackupPolicy int

const (
	// BackupOverwrite keeps a single backup slot, <path><suffix>, replaced on every run.
	BackupOverwrite BackupPolicy = iota
	// BackupTimestamped keeps every backup as <path><suffix>.<YYYYmmdd_HHMMSS>.
	BackupTimestamped
)

// backupTimeFormat is `date +%Y%m%d_%H%M%S`; it sorts lexically in time order.
const backupTimeFormat = "20060102_150405"

func (p BackupPolicy) String() string {
	switch p {
	case BackupOverwrite:
		return "overwrite"
	case BackupTimestamped:
		return "timestamped"
	default:
		return fmt.Sprintf("BackupPolicy(%d)", int(p))
	}
}

// ParseBackupPolicy parses a policy name. The empty string selects
// BackupOverwrite.
func ParseBackupPolicy(name string) (BackupPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "overwrite":
		return BackupOverwrite, nil
	case "timestamped", "timestamp":
		return BackupTimestamped, nil
	default:
		return BackupOverwrite, fmt.Errorf("unknown backup policy %q (want overwrite or timestamped)", name)
	}
}

// FileSystem handles file system operations on the local host.
// Privileges are the caller's; nothing here elevates.
type FileSystem struct {
	now func() time.Time
}

// NewFileSystem creates a new FileSystem instance
func NewFileSystem() *FileSystem {
	return &FileSystem{now: time.Now}
}

// FileExists checks if a file exists
func (fs *FileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check if file exists %s: %w", path, err)
}

// GetPermissions returns the permissions of a file or directory
func (fs *FileSystem) GetPermissions(path string) (os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info.Mode().Perm(), nil
}

// ReadFile returns the content of path. A missing file yields an error
// wrapping os.ErrNotExist.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}

// WriteFile replaces path with content atomically: the data goes to a
// temporary file in the same directory which is synced and renamed over
// the target. Ownership of an existing target is carried over when the
// process is allowed to.
func (fs *FileSystem) WriteFile(path string, content []byte, perms os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err := tmpFile.Chmod(perms); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if uid, gid, ok := owner(path); ok {
		// Only root can hand a file to another user; a failure leaves the
		// caller's ownership, which is what an unprivileged write gives anyway.
		_ = os.Lchown(tmpPath, uid, gid)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move file to %s: %w", path, err)
	}

	return nil
}

// CopyFile copies src to dst atomically, keeping the permissions of src.
func (fs *FileSystem) CopyFile(src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	perms, err := fs.GetPermissions(src)
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := fs.WriteFile(dst, content, perms); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// BackupFile copies path next to itself and returns the backup's path.
// Under BackupOverwrite the backup is <path><suffix>; under
// BackupTimestamped a timestamp is appended so earlier backups survive.
func (fs *FileSystem) BackupFile(path, suffix string, policy BackupPolicy) (string, error) {
	backupPath := BackupName(path, suffix, policy, fs.now())

	if err := fs.CopyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	return backupPath, nil
}

// LatestBackup returns the backup a restore should use: the single slot
// under BackupOverwrite, the newest timestamped copy otherwise.
func (fs *FileSystem) LatestBackup(path, suffix string, policy BackupPolicy) (string, error) {
	if policy == BackupOverwrite {
		backupPath := path + suffix
		exists, err := fs.FileExists(backupPath)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", fmt.Errorf("no backup found at %s: %w", backupPath, os.ErrNotExist)
		}
		return backupPath, nil
	}

	matches, err := filepath.Glob(globEscape(path+suffix) + ".*")
	if err != nil {
		return "", fmt.Errorf("failed to list backups of %s: %w", path, err)
	}
	if latest := newestBackup(matches, path+suffix); latest != "" {
		return latest, nil
	}
	return "", fmt.Errorf("no timestamped backup of %s found: %w", path, os.ErrNotExist)
}

// BackupName returns the backup path for path under policy at time t.
func BackupName(path, suffix string, policy BackupPolicy, t time.Time) string {
	if policy == BackupTimestamped {
		return fmt.Sprintf("%s%s.%s", path, suffix, t.Format(backupTimeFormat))
	}
	return path + suffix
}

// newestBackup picks the lexically greatest candidate whose extension is a
// well-formed timestamp.
func newestBackup(candidates []string, base string) string {
	var stamped []string
	for _, c := range candidates {
		stamp := strings.TrimPrefix(c, base+".")
		if _, err := time.Parse(backupTimeFormat, stamp); err == nil {
			stamped = append(stamped, c)
		}
	}
	if len(stamped) == 0 {
		return ""
	}
	sort.Strings(stamped)
	return stamped[len(stamped)-1]
}

func globEscape(path string) string {
	r := strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`, `\`, `\\`)
	return r.Replace(path)
}

// owner returns the uid and gid of an existing path.
func owner(path string) (int, int, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return int(stat.Uid), int(stat.Gid), true
}
