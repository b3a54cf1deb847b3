// Package fsutil holds filesystem helpers shared by uploads and workspaces.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	appErr "termchat/pkg/errors"
)

// ValidateFilename rejects names that could escape their containing
// directory: absolute paths, separators, parent references, NUL bytes.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return appErr.New(appErr.UnsafeFilename).WithMessage("filename is required")
	}
	if filepath.IsAbs(name) {
		return appErr.Newf(appErr.UnsafeFilename, "absolute paths are not allowed: %s", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return appErr.Newf(appErr.UnsafeFilename, "path separators are not allowed: %s", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return appErr.Newf(appErr.UnsafeFilename, "parent references are not allowed: %s", name)
	}
	if strings.ContainsRune(name, 0) {
		return appErr.New(appErr.UnsafeFilename).WithMessage("filename contains a NUL byte")
	}
	return nil
}

// FileSHA256 returns the hex-encoded SHA-256 digest of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	digest := sha256.New()
	if _, err := io.Copy(digest, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
