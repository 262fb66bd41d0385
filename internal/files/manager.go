package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Manager reads and writes files inside one output directory
type Manager struct {
	root string
}

// NewManager creates a manager rooted at dir
func NewManager(dir string) *Manager {
	return &Manager{root: dir}
}

// Root returns the managed directory
func (m *Manager) Root() string {
	return m.root
}

// Path resolves name inside the managed directory
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.root, name)
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// EnsureDirectory creates the managed directory if it doesn't exist
func (m *Manager) EnsureDirectory() error {
	if err := os.MkdirAll(m.root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", m.root, err)
	}
	return nil
}

// WriteFile replaces name atomically: data goes to a temporary sibling that
// is renamed over the target, so readers never see a partial file
func (m *Manager) WriteFile(name string, data []byte) error {
	fullPath := m.Path(name)

	slog.Debug("Writing file",
		slog.String("path", fullPath),
		slog.Int("size_bytes", len(data)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// ReadFile reads the entire content of a file
func (m *Manager) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(m.Path(name))
}

// ListFiles returns the regular files in the managed directory, sorted
func (m *Manager) ListFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(m.root, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}
