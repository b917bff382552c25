package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/muse/internal/apperr"
	"github.com/starford/muse/internal/models"
)

// Extension is the suffix every workspace document carries.
const Extension = ".md"

const tempPattern = ".muse-tmp-*"

// FS implements Gateway backed by one local directory.
type FS struct {
	mu  sync.RWMutex
	dir string // absolute path to the workspace directory
}

// NewFS creates a gateway rooted at dir. The directory must already exist.
func NewFS(dir string) (*FS, error) {
	abs, err := checkDir(dir)
	if err != nil {
		return nil, err
	}
	return &FS{dir: abs}, nil
}

func checkDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("storage: resolve dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("storage: stat dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("storage: not a directory: %s", abs)
	}
	return abs, nil
}

// CurrentDirectory returns the absolute workspace directory.
func (f *FS) CurrentDirectory() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dir
}

// SetCurrentDirectory switches the workspace to dir.
func (f *FS) SetCurrentDirectory(dir string) error {
	abs, err := checkDir(dir)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.dir = abs
	f.mu.Unlock()
	return nil
}

// resolve maps path onto the workspace and rejects anything outside it.
func (f *FS) resolve(path string) (string, error) {
	root := f.CurrentDirectory()
	if path == "" {
		return "", fmt.Errorf("storage: empty path")
	}
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Join(root, filepath.Clean(path))
	}
	if !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: %s: %w", path, apperr.ErrOutsideRoot)
	}
	return abs, nil
}

// ListFiles returns the markdown files directly inside the workspace.
func (f *FS) ListFiles() ([]models.FileEntry, error) {
	root := f.CurrentDirectory()
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		out = append(out, models.FileEntry{
			Name:         e.Name(),
			Path:         filepath.Join(root, e.Name()),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ReadFile returns the text of a workspace file.
func (f *FS) ReadFile(path string) (string, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("storage: read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteFile atomically replaces an existing file: tmp file → fsync → rename.
// Writing a file that does not exist fails; documents are made with CreateFile.
func (f *FS) WriteFile(path, content string) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: write %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return writeAtomic(abs, []byte(content), info.Mode().Perm())
}

func writeAtomic(abs string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// CreateFile creates a new document and returns its absolute path.
func (f *FS) CreateFile(name, content string) (string, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	abs, err := f.resolve(name)
	if err != nil {
		return "", err
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("storage: create %s: %w", name, apperr.ErrAlreadyExists)
		}
		return "", fmt.Errorf("storage: create %s: %w", name, err)
	}
	if _, err := file.WriteString(content); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("storage: create %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", name, err)
	}
	return abs, nil
}

// DeleteFile removes a document.
func (f *FS) DeleteFile(path string) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: delete %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// ValidateName checks a user-supplied document name before creation.
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, 255),
		validation.By(func(v interface{}) error {
			s, _ := v.(string)
			if strings.ContainsAny(s, `/\`) || s == "." || s == ".." || strings.HasPrefix(s, ".") {
				return errors.New("must be a plain file name")
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("storage: %q: %w: %v", name, apperr.ErrInvalidName, err)
	}
	return nil
}

var _ Gateway = (*FS)(nil)
