// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
)

// CloudPlatformScope is requested for every loaded credential.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// CredentialsEnv names the environment variable holding a credentials path.
const CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// CredentialsSecret is the secrets key consulted when neither a flag nor
// the environment names a credentials file. Its value is either a path or
// the service-account JSON itself.
const CredentialsSecret = "google-application-credentials"

// CredentialsError reports a credential file that could not be loaded.
type CredentialsError struct {
	Path string
	Err  error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("failed to load Google Cloud credentials from '%s'. "+
		"Please ensure the file exists and is a valid service account JSON file. Error: %v", e.Path, e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// ResolveCredentials picks the credential source: flagPath when set, then
// $GOOGLE_APPLICATION_CREDENTIALS, then the secrets entry. It returns the
// path to report in errors and the raw JSON when the secret inlines it.
func ResolveCredentials(flagPath string, secrets map[string]string) (path string, inline []byte) {
	if flagPath != "" {
		return flagPath, nil
	}
	if env := os.Getenv(CredentialsEnv); env != "" {
		return env, nil
	}
	v := strings.TrimSpace(secrets[CredentialsSecret])
	if strings.HasPrefix(v, "{") {
		return "secret:" + CredentialsSecret, []byte(v)
	}
	return v, nil
}

// LoadCredentials reads a service-account JSON file and scopes it for
// Cloud Platform. No token is fetched.
func LoadCredentials(ctx context.Context, path string) (*google.Credentials, error) {
	if path == "" {
		return nil, &CredentialsError{Path: path, Err: fmt.Errorf("%s is not set", CredentialsEnv)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialsError{Path: path, Err: err}
	}
	return ParseCredentials(ctx, path, data)
}

// ParseCredentials parses service-account JSON. origin is used in errors.
func ParseCredentials(ctx context.Context, origin string, data []byte) (*google.Credentials, error) {
	var head struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &CredentialsError{Path: origin, Err: err}
	}
	if head.Type != "service_account" {
		return nil, &CredentialsError{Path: origin, Err: fmt.Errorf("credential type is %q, want service_account", head.Type)}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, CloudPlatformScope)
	if err != nil {
		return nil, &CredentialsError{Path: origin, Err: err}
	}
	return creds, nil
}
