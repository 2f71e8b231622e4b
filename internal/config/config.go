// Package config provides the run settings of pi-static-ip and a small
// persistent store remembering the last values applied. Settings are
// assembled once per run from flags, environment and an optional YAML file
// and are immutable afterwards. The store is a key=value file written
// atomically; its operations are safe for concurrent use.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store persists the last applied values between runs
type Store struct {
	filePath string
	data     map[string]string
	loaded   bool // Track if state has been loaded from disk
	mu       sync.RWMutex
}

// DefaultStatePath returns ~/.pi-static-ip.conf, falling back to /root
// when the home directory cannot be determined.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/root"
	}
	return filepath.Join(home, ".pi-static-ip.conf")
}

// ensureLoaded loads state from disk once before read operations.
// This method must only be called while holding s.mu.Lock.
func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	return s.Load()
}

// NewStore creates a new Store. An empty path selects DefaultStatePath.
func NewStore(filePath string) *Store {
	if filePath == "" {
		filePath = DefaultStatePath()
	}

	return &Store{
		filePath: filePath,
		data:     make(map[string]string),
	}
}

// Load reads state from file
func (s *Store) Load() error {
	// If file doesn't exist, that's okay - we'll create it on Save
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		s.loaded = true
		return nil
	}

	file, err := os.Open(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value
		key, value, ok := strings.Cut(line, "=")
		if ok {
			s.data[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	s.loaded = true
	return nil
}

// save writes state to file using atomic write pattern.
// Caller must hold s.mu.Lock.
func (s *Store) save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Create temporary file in the same directory for atomic rename
	tmpFile, err := os.CreateTemp(dir, ".pi-static-ip.conf.tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) // Cleanup on error

	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	w := bufio.NewWriter(tmpFile)
	fmt.Fprintln(w, "# pi-static-ip state")
	fmt.Fprintf(w, "# Updated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(w, "")

	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "%s=%s\n", key, s.data[key])
	}

	if err := w.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file to state file: %w", err)
	}

	return nil
}

// Get retrieves a value (thread-safe)
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return "", fmt.Errorf("failed to load state: %w", err)
	}
	value, exists := s.data[key]
	if !exists {
		return "", fmt.Errorf("state key not found: %s", key)
	}
	return value, nil
}

// GetOrDefault retrieves a value or returns defaultValue if not found (thread-safe)
func (s *Store) GetOrDefault(key, defaultValue string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return defaultValue
	}
	if value, exists := s.data[key]; exists {
		return value
	}
	return defaultValue
}

// Set sets a single value and saves (thread-safe)
func (s *Store) Set(key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// SetMany sets several values and saves once (thread-safe)
// Existing state is loaded first so unrelated keys survive.
func (s *Store) SetMany(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return fmt.Errorf("failed to load existing state before set: %w", err)
	}

	for key, value := range values {
		s.data[key] = value
	}
	return s.save()
}

// Exists checks if a key exists (thread-safe)
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return false
	}
	_, exists := s.data[key]
	return exists
}

// GetAll returns a copy of all state (thread-safe)
func (s *Store) GetAll() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return map[string]string{}
	}
	result := make(map[string]string, len(s.data))
	for k, v := range s.data {
		result[k] = v
	}
	return result
}

// Delete removes a key and saves (thread-safe)
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return fmt.Errorf("failed to load existing state before delete: %w", err)
	}

	delete(s.data, key)
	return s.save()
}

// FilePath returns the state file path
func (s *Store) FilePath() string {
	return s.filePath
}
