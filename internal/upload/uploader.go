// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Uploader sends files below a local root to a Provider, keeping their
// paths relative to that root. A nil *Uploader does nothing.
type Uploader struct {
	// MaxRetries bounds retries of throttled uploads (0 = 4).
	MaxRetries int

	provider Provider
	root     string
}

// NewUploader returns an Uploader for files under root.
func NewUploader(p Provider, root string) *Uploader {
	return &Uploader{provider: p, root: root}
}

// RemotePath maps a local file to its remote path.
func (u *Uploader) RemotePath(localPath string) string {
	rel, err := filepath.Rel(u.root, localPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(localPath)
	}
	return filepath.ToSlash(rel)
}

// UploadFile uploads one file and returns its remote path. Throttled or
// unavailable responses are retried with backoff.
func (u *Uploader) UploadFile(ctx context.Context, localPath string) (string, error) {
	if u == nil {
		return "", nil
	}
	remote := u.RemotePath(localPath)
	err := doWithRetry(ctx, u.MaxRetries, func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("opening %s for upload: %w", localPath, err)
		}
		defer f.Close()
		return u.provider.Upload(ctx, f, remote)
	})
	if err != nil {
		return "", err
	}
	return remote, nil
}

// UploadAll uploads every path, reporting each on w. It stops at the first
// failure and returns the number of files uploaded before it.
func (u *Uploader) UploadAll(ctx context.Context, paths []string, w io.Writer) (int, error) {
	if u == nil {
		return 0, nil
	}
	for i, p := range paths {
		remote, err := u.UploadFile(ctx, p)
		if err != nil {
			return i, err
		}
		fmt.Fprintf(w, "uploaded: %s -> %s:%s\n", filepath.Base(p), u.provider.Name(), remote)
	}
	return len(paths), nil
}
