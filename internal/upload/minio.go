// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioProvider uploads to MinIO or any S3-compatible endpoint.
type MinioProvider struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioProvider creates an unconfigured MinioProvider.
func NewMinioProvider() *MinioProvider {
	return &MinioProvider{}
}

func (m *MinioProvider) Name() string {
	return "minio"
}

// Configure creates the client and checks that the bucket exists. Required
// keys: endpoint, access_key, secret_key, bucket. Optional: secure (default
// true), region (default us-east-1), prefix. An http:// or https:// scheme
// on the endpoint overrides secure.
func (m *MinioProvider) Configure(ctx context.Context, config map[string]any) error {
	endpoint, ok := stringValue(config, "endpoint")
	if !ok {
		return fmt.Errorf("minio: endpoint is required")
	}
	accessKey, ok := stringValue(config, "access_key")
	if !ok {
		return fmt.Errorf("minio: access_key is required")
	}
	secretKey, ok := stringValue(config, "secret_key")
	if !ok {
		return fmt.Errorf("minio: secret_key is required")
	}
	bucket, ok := stringValue(config, "bucket")
	if !ok {
		return fmt.Errorf("minio: bucket is required")
	}

	host, secure, err := splitEndpoint(endpoint, boolValue(config, "secure", true))
	if err != nil {
		return err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: stringValueOr(config, "region", "us-east-1"),
	})
	if err != nil {
		return fmt.Errorf("minio: failed to create client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("minio: failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio: bucket %s does not exist", bucket)
	}

	m.client = client
	m.bucket = bucket
	m.prefix = stringValueOr(config, "prefix", "")
	return nil
}

// Upload streams reader to remotePath under the configured prefix.
func (m *MinioProvider) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	if m.client == nil {
		return fmt.Errorf("minio: provider not configured")
	}
	objectName := ObjectName(m.prefix, remotePath)

	// Size -1 streams with multipart upload.
	if _, err := m.client.PutObject(ctx, m.bucket, objectName, reader, -1, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("minio: failed to upload to %s: %w", objectName, err)
	}
	return nil
}

// ObjectName joins prefix and remotePath with forward slashes.
func ObjectName(prefix, remotePath string) string {
	if prefix == "" {
		return strings.TrimPrefix(remotePath, "/")
	}
	return path.Join(prefix, remotePath)
}

func splitEndpoint(endpoint string, secure bool) (string, bool, error) {
	host := endpoint
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		host, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		host, secure = strings.TrimPrefix(endpoint, "http://"), false
	}
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return "", false, fmt.Errorf("minio: endpoint %q has no host", endpoint)
	}
	return host, secure, nil
}

func stringValue(config map[string]any, key string) (string, bool) {
	if s, ok := config[key].(string); ok && s != "" {
		return s, true
	}
	return "", false
}

func stringValueOr(config map[string]any, key, def string) string {
	if s, ok := stringValue(config, key); ok {
		return s
	}
	return def
}

func boolValue(config map[string]any, key string, def bool) bool {
	switch v := config[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
