// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = time.Millisecond
}

func throttled() error {
	return minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}
}

func writeUploadFile(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	p := filepath.Join(root, "a.xlsx")
	require.NoError(t, os.WriteFile(p, []byte("A"), 0o644))
	return root, p
}

func TestUploadFile_RetriesThrottled(t *testing.T) {
	root, p := writeUploadFile(t)
	m := &mockProvider{failures: []error{throttled(), throttled()}}
	u := NewUploader(m, root)

	remote, err := u.UploadFile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "a.xlsx", remote)
	assert.Equal(t, 3, m.calls)
	assert.Equal(t, "A", m.uploads["a.xlsx"], "each attempt reopens the file")
}

func TestUploadFile_ExhaustsRetries(t *testing.T) {
	root, p := writeUploadFile(t)
	m := &mockProvider{uploadErr: throttled()}
	u := NewUploader(m, root)
	u.MaxRetries = 2

	_, err := u.UploadFile(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, minio.ToErrorResponse(err).StatusCode)
	assert.Equal(t, 3, m.calls)
}

func TestUploadFile_NoRetryOnPermanentError(t *testing.T) {
	root, p := writeUploadFile(t)
	m := &mockProvider{uploadErr: minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}}

	_, err := NewUploader(m, root).UploadFile(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, 1, m.calls)
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	RetryBaseDelay = time.Hour
	t.Cleanup(func() { RetryBaseDelay = time.Millisecond })

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- doWithRetry(ctx, 3, func() error {
			calls++
			return throttled()
		})
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("doWithRetry did not return after cancel")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "slow down", err: throttled(), want: true},
		{name: "too many requests", err: minio.ErrorResponse{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "not found", err: minio.ErrorResponse{StatusCode: http.StatusNotFound}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "io error", err: io.ErrUnexpectedEOF, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}
