package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Credential variable names, shared by the dotenv file and the environment
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
)

// Credentials is a static AWS access key
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Source          string // file path or "environment"
}

// CredentialsError reports which credential variables could not be found
type CredentialsError struct {
	Path    string
	Missing []string
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("missing AWS credentials: %s not set in the environment or %s", strings.Join(e.Missing, ", "), e.Path)
}

// Instructions describes how to provide the missing credentials
func (e *CredentialsError) Instructions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %s with:\n", e.Path)
	fmt.Fprintf(&b, "  %s=your_access_key\n", EnvAccessKeyID)
	fmt.Fprintf(&b, "  %s=your_secret_key\n", EnvSecretAccessKey)
	b.WriteString("Access keys are created in the AWS console under IAM > Users > Security credentials.\n")
	b.WriteString("Alternatively export the variables, or pass --profile to use ~/.aws/credentials.")
	return b.String()
}

// DefaultCredentialsPath returns ~/.env
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".env"
	}
	return filepath.Join(home, ".env")
}

// LoadCredentials reads the access key from a dotenv file at path. Process
// environment variables take precedence over the file. A missing file is not
// an error by itself; missing variables are.
func LoadCredentials(path string) (*Credentials, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
		}
		fromFile = false
	}

	// Environment overrides the file
	v.AutomaticEnv()

	creds := &Credentials{
		AccessKeyID:     strings.TrimSpace(v.GetString(EnvAccessKeyID)),
		SecretAccessKey: strings.TrimSpace(v.GetString(EnvSecretAccessKey)),
		SessionToken:    strings.TrimSpace(v.GetString(EnvSessionToken)),
		Source:          path,
	}

	var missing []string
	if creds.AccessKeyID == "" {
		missing = append(missing, EnvAccessKeyID)
	}
	if creds.SecretAccessKey == "" {
		missing = append(missing, EnvSecretAccessKey)
	}
	if len(missing) > 0 {
		return nil, &CredentialsError{Path: path, Missing: missing}
	}

	if !fromFile || os.Getenv(EnvAccessKeyID) != "" {
		creds.Source = "environment"
	}

	return creds, nil
}
