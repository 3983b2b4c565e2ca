package aws

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSharedFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	creds := filepath.Join(dir, "credentials")
	require.NoError(t, os.WriteFile(creds, []byte(`[default]
aws_access_key_id = AKIADEFAULT
aws_secret_access_key = secret

[work]
aws_access_key_id = AKIAWORK
aws_secret_access_key = secret
`), 0600))

	cfg := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(cfg, []byte(`# shared config
[default]
region = us-east-1

[profile work]
region = eu-west-1

[sso-session corp]
sso_region = us-east-1

[profile sso]
sso_session = corp
region = ap-southeast-2
`), 0600))

	return creds, cfg
}

func TestListProfiles(t *testing.T) {
	creds, cfg := writeSharedFiles(t)

	profiles, err := ListProfiles(creds, cfg)
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Equal(t, "default", profiles[0].Name)
	assert.Equal(t, "us-east-1", profiles[0].Region)
	assert.Equal(t, "credentials", profiles[0].Source)

	assert.Equal(t, "sso", profiles[1].Name)
	assert.Equal(t, "config", profiles[1].Source)
	assert.Equal(t, "ap-southeast-2", profiles[1].Region)

	assert.Equal(t, "work", profiles[2].Name)
	assert.Equal(t, "eu-west-1", profiles[2].Region)
}

func TestListProfilesMissingFiles(t *testing.T) {
	dir := t.TempDir()

	profiles, err := ListProfiles(filepath.Join(dir, "credentials"), filepath.Join(dir, "config"))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestProfileNotFound(t *testing.T) {
	creds, cfg := writeSharedFiles(t)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", creds)
	t.Setenv("AWS_CONFIG_FILE", cfg)

	err := profileNotFound("typo", fmt.Errorf("load: %w", config.SharedConfigProfileNotExistError{Profile: "typo"}))

	var notFound *ProfileNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"default", "sso", "work"}, notFound.Available)
	assert.Contains(t, err.Error(), `"typo" not found`)

	other := fmt.Errorf("something else")
	assert.Same(t, other, profileNotFound("typo", other))
}
