package system

import "os"

// FileSystemManager defines the interface for file system operations.
// This allows for mocking the file system in tests.
type FileSystemManager interface {
	FileExists(path string) (bool, error)
	GetPermissions(path string) (os.FileMode, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte, perms os.FileMode) error
	CopyFile(src, dst string) error
	BackupFile(path, suffix string, policy BackupPolicy) (string, error)
	LatestBackup(path, suffix string, policy BackupPolicy) (string, error)
}

var (
	_ FileSystemManager = (*FileSystem)(nil)
	_ FileSystemManager = (*MockFileSystem)(nil)
)
