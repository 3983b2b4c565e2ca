package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAccessKeyID, EnvSecretAccessKey, EnvSessionToken} {
		t.Setenv(k, "")
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCredentialsFromFile(t *testing.T) {
	clearCredentialEnv(t)
	path := writeEnvFile(t, "# aws\nAWS_ACCESS_KEY_ID=AKIAFILE\nAWS_SECRET_ACCESS_KEY=filesecret\n")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "AKIAFILE", creds.AccessKeyID)
	assert.Equal(t, "filesecret", creds.SecretAccessKey)
	assert.Empty(t, creds.SessionToken)
	assert.Equal(t, path, creds.Source)
}

func TestLoadCredentialsEnvOverridesFile(t *testing.T) {
	clearCredentialEnv(t)
	path := writeEnvFile(t, "AWS_ACCESS_KEY_ID=AKIAFILE\nAWS_SECRET_ACCESS_KEY=filesecret\n")
	t.Setenv(EnvAccessKeyID, "AKIAENV")
	t.Setenv(EnvSecretAccessKey, "envsecret")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "AKIAENV", creds.AccessKeyID)
	assert.Equal(t, "envsecret", creds.SecretAccessKey)
	assert.Equal(t, "environment", creds.Source)
}

func TestLoadCredentialsMissingFileUsesEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvAccessKeyID, "AKIAENV")
	t.Setenv(EnvSecretAccessKey, "envsecret")

	creds, err := LoadCredentials(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "AKIAENV", creds.AccessKeyID)
	assert.Equal(t, "environment", creds.Source)
}

func TestLoadCredentialsMissingKeys(t *testing.T) {
	clearCredentialEnv(t)
	path := writeEnvFile(t, "AWS_ACCESS_KEY_ID=AKIAFILE\n")

	_, err := LoadCredentials(path)
	require.Error(t, err)

	var credErr *CredentialsError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, []string{EnvSecretAccessKey}, credErr.Missing)
	assert.Contains(t, err.Error(), EnvSecretAccessKey)
	assert.Contains(t, credErr.Instructions(), path)

	_, err = LoadCredentials(filepath.Join(t.TempDir(), "absent.env"))
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, []string{EnvAccessKeyID, EnvSecretAccessKey}, credErr.Missing)
}
