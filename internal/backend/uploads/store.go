package uploads

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DerivedPrefix marks the filtered copy of an upload.
const DerivedPrefix = "cartoonized_"

// GalleryExtensions are the file extensions shown in the gallery.
var GalleryExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Upload addresses one original asset and its derived asset. Both live in the
// directory named by ID, so equal client filenames never collide.
type Upload struct {
	ID   string
	Name string
}

// DerivedName returns the filename of the filtered copy of name.
func DerivedName(name string) string {
	return DerivedPrefix + name
}

// OriginalPath is the slash separated path of the original relative to the store root.
func (u Upload) OriginalPath() string {
	return path.Join(u.ID, u.Name)
}

// DerivedPath is the slash separated path of the derived asset relative to the store root.
func (u Upload) DerivedPath() string {
	return path.Join(u.ID, DerivedName(u.Name))
}

// Store keeps uploads in a directory tree on the local file system.
type Store struct {
	root string
}

// NewStore creates the root directory when needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("upload directory must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory the store writes to.
func (s *Store) Root() string {
	return s.root
}

// NewUpload reserves a fresh upload directory for the sanitized filename name.
func (s *Store) NewUpload(name string) (Upload, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return Upload{}, fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	upload := Upload{ID: uuid.NewString(), Name: name}
	if err := os.Mkdir(filepath.Join(s.root, upload.ID), 0o755); err != nil {
		return Upload{}, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return upload, nil
}

// WriteOriginal stores the uploaded bytes verbatim.
func (s *Store) WriteOriginal(upload Upload, data []byte) error {
	target := filepath.Join(s.root, filepath.FromSlash(upload.OriginalPath()))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write original %s: %w", upload.OriginalPath(), err)
	}
	slog.Debug("Store: wrote original", "path", upload.OriginalPath(), "size_bytes", len(data))
	return nil
}

// WriteDerived stores the encoded filtered copy.
func (s *Store) WriteDerived(upload Upload, data []byte) error {
	target := filepath.Join(s.root, filepath.FromSlash(upload.DerivedPath()))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write derived %s: %w", upload.DerivedPath(), err)
	}
	slog.Debug("Store: wrote derived", "path", upload.DerivedPath(), "size_bytes", len(data))
	return nil
}

// Remove deletes the upload directory with everything written to it so far.
func (s *Store) Remove(upload Upload) error {
	if upload.ID == "" || strings.ContainsAny(upload.ID, `/\.`) {
		return fmt.Errorf("%w: upload id %q", ErrInvalidFilename, upload.ID)
	}
	if err := os.RemoveAll(filepath.Join(s.root, upload.ID)); err != nil {
		return fmt.Errorf("failed to remove upload %s: %w", upload.ID, err)
	}
	slog.Debug("Store: removed upload", "upload_id", upload.ID)
	return nil
}

// List returns the slash separated paths of all gallery images, sorted.
func (s *Store) List() ([]string, error) {
	var images []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !slices.Contains(GalleryExtensions, strings.ToLower(filepath.Ext(p))) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		images = append(images, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	slices.Sort(images)
	return images, nil
}

// Resolve maps a slash separated relative path to a file inside the store.
// Paths escaping the root are rejected.
func (s *Store) Resolve(rel string) (string, error) {
	cleaned := path.Clean("/" + rel)
	if cleaned == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, rel)
	}
	local := filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, rel)
	}
	return filepath.Join(s.root, local), nil
}
