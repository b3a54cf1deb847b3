// Package files manages the server-side upload directory.
package files

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	appErr "termchat/pkg/errors"
	"termchat/pkg/utils/fsutil"
)

// Info describes one stored file.
type Info struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256,omitempty"`
}

// Store saves and serves uploaded files under a single root directory.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore creates the upload root if needed. maxBytes caps a single upload;
// zero disables the cap.
func NewStore(root string, maxBytes int64) (*Store, error) {
	if root == "" {
		return nil, appErr.ValidationError("uploads_dir", "required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "resolve uploads dir failed")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "create uploads dir failed")
	}
	return &Store{root: abs, maxBytes: maxBytes}, nil
}

// Save writes the upload under its validated filename and returns its info,
// including a checksum the client can verify against.
func (s *Store) Save(filename string, r io.Reader) (Info, error) {
	if err := fsutil.ValidateFilename(filename); err != nil {
		return Info{}, err
	}

	dst := filepath.Join(s.root, filename)
	f, err := os.Create(dst)
	if err != nil {
		return Info{}, appErr.Wrapf(err, appErr.FileUploadFailed, "create upload file failed")
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	written, err := io.Copy(f, src)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(dst)
		return Info{}, appErr.Wrapf(err, appErr.FileUploadFailed, "write upload failed")
	}
	if closeErr != nil {
		_ = os.Remove(dst)
		return Info{}, appErr.Wrapf(closeErr, appErr.FileUploadFailed, "flush upload failed")
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		_ = os.Remove(dst)
		return Info{}, appErr.Newf(appErr.FileTooLarge, "upload exceeds %d bytes", s.maxBytes)
	}

	sum, err := fsutil.FileSHA256(dst)
	if err != nil {
		return Info{}, appErr.Wrapf(err, appErr.InternalServerError, "checksum upload failed")
	}
	return Info{Name: filename, Size: written, SHA256: sum}, nil
}

// List returns stored files sorted by name.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.FileListingFailed, "read uploads dir failed")
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: entry.Name(), Size: fi.Size()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Read returns the contents of a stored file.
func (s *Store) Read(filename string) ([]byte, error) {
	if err := fsutil.ValidateFilename(filename); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.Newf(appErr.FileNotFound, "file not found: %s", filename)
		}
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "read file failed")
	}
	return data, nil
}

// Path returns the absolute path of a stored file, checking existence.
func (s *Store) Path(filename string) (string, error) {
	if err := fsutil.ValidateFilename(filename); err != nil {
		return "", err
	}
	p := filepath.Join(s.root, filename)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", appErr.Newf(appErr.FileNotFound, "file not found: %s", filename)
		}
		return "", appErr.Wrapf(err, appErr.InternalServerError, "stat file failed")
	}
	return p, nil
}
