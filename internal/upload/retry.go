// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled or unavailable storage. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 4

// doWithRetry calls fn and retries retryable failures with exponential
// backoff: RetryBaseDelay, then double each attempt. It returns the last
// error once maxRetries retries are used, or ctx.Err() if the context ends
// during a wait.
func doWithRetry(ctx context.Context, maxRetries int, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !retryable(err) || attempt >= maxRetries {
			return err
		}

		backoff := time.Duration(1<<attempt) * RetryBaseDelay
		slog.Debug("upload throttled, retrying", "backoff", backoff, "attempt", attempt+1, "max", maxRetries, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryable reports whether the storage service asked the client to slow
// down or was briefly unavailable.
func retryable(err error) bool {
	switch minio.ToErrorResponse(err).StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
