package cmd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/awsfree/internal/aws"
	"github.com/vietdv277/awsfree/internal/config"
	"github.com/vietdv277/awsfree/internal/freetier"
	"github.com/vietdv277/awsfree/internal/runner"
	"github.com/vietdv277/awsfree/pkg/provider"
	"github.com/vietdv277/awsfree/pkg/types"
)

func TestWebAliases(t *testing.T) {
	for _, name := range []string{"web", "console", "dashboard", "instances"} {
		t.Run(name, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Same(t, webCmd, c)
		})
	}
}

func TestVerbAliases(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ls"}, "list"},
		{[]string{"rm", "i-1"}, "delete"},
		{[]string{"key", "create", "mykey"}, "create"},
		{[]string{"key", "us-east-1"}, "key"},
		{[]string{"config", "set", "region", "eu-west-1"}, "set"},
	}

	for _, tt := range tests {
		c, _, err := rootCmd.Find(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, c.Name(), tt.args)
	}
}

func TestUnknownVerb(t *testing.T) {
	_, _, err := rootCmd.Find([]string{"launch"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestPrintErrorUnknownVerbShowsUsage(t *testing.T) {
	_, _, err := rootCmd.Find([]string{"launch"})
	require.Error(t, err)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), `unknown command "launch"`)
	assert.Contains(t, buf.String(), "Usage:")
	assert.Contains(t, buf.String(), "Available Commands:")
	assert.Contains(t, buf.String(), "create")
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		args       []string
		wantName   string
		wantRegion string
	}{
		{nil, "", ""},
		{[]string{"mykey"}, "mykey", ""},
		{[]string{"i-0123456789abcdef0"}, "i-0123456789abcdef0", ""},
		{[]string{"eu-west-1"}, "", "eu-west-1"},
		{[]string{"us-gov-west-1"}, "", "us-gov-west-1"},
		{[]string{"mykey", "ap-southeast-2"}, "mykey", "ap-southeast-2"},
	}

	for _, tt := range tests {
		name, region := splitArgs(tt.args)
		assert.Equal(t, tt.wantName, name, tt.args)
		assert.Equal(t, tt.wantRegion, region, tt.args)
	}
}

func TestResolveRegion(t *testing.T) {
	initConfig()
	t.Cleanup(func() { settings = &config.Settings{} })

	t.Setenv("AWSFREE_REGION", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	settings = &config.Settings{}

	assert.Equal(t, "us-west-2", resolveRegion(""))

	t.Setenv("AWS_DEFAULT_REGION", "ca-central-1")
	assert.Equal(t, "ca-central-1", resolveRegion(""))

	t.Setenv("AWS_REGION", "sa-east-1")
	assert.Equal(t, "sa-east-1", resolveRegion(""))

	settings = &config.Settings{Region: "ap-south-1"}
	assert.Equal(t, "ap-south-1", resolveRegion(""))

	t.Setenv("AWSFREE_REGION", "eu-north-1")
	assert.Equal(t, "eu-north-1", resolveRegion(""))

	assert.Equal(t, "eu-west-1", resolveRegion("eu-west-1"))
}

func TestPrintErrorFreeTierLimit(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("create: %w", &freetier.FreeTierLimitError{
		Region:    "us-west-2",
		Instances: []types.Instance{{ID: "i-existing"}},
	})

	printError(&buf, err)
	assert.Contains(t, buf.String(), "i-existing")
	assert.Contains(t, buf.String(), "awsfree delete i-existing us-west-2")
}

func TestPrintErrorCredentials(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &config.CredentialsError{Path: "/home/dev/.env", Missing: []string{config.EnvSecretAccessKey}})

	assert.Contains(t, buf.String(), config.EnvSecretAccessKey)
	assert.Contains(t, buf.String(), "Create /home/dev/.env")
}

func TestPrintErrorHints(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &runner.MissingDependencyError{Tool: "ssh", Hint: "Install OpenSSH"})
	assert.Contains(t, buf.String(), "Install OpenSSH")

	buf.Reset()
	printError(&buf, fmt.Errorf("terminate: %w", provider.ErrPermissionDenied))
	assert.Contains(t, buf.String(), aws.Hint(provider.ErrPermissionDenied))
}

func TestNewKeyManagerGenerator(t *testing.T) {
	t.Cleanup(func() { settings = &config.Settings{} })
	client := aws.New(nil, nil, "us-west-2")
	r := &runner.Fake{}

	settings = &config.Settings{}
	m := newKeyManager(client, r, nil, nil)
	assert.Equal(t, "ssh-keygen", m.Generator.Name())
	require.NotNil(t, m.Fallback)
	assert.Equal(t, "native ed25519", m.Fallback.Name())

	settings = &config.Settings{KeyGenerator: config.KeyGeneratorNative, SSHDir: "/tmp/keys"}
	m = newKeyManager(client, r, nil, nil)
	assert.Equal(t, "native ed25519", m.Generator.Name())
	assert.Nil(t, m.Fallback)
	assert.Equal(t, "/tmp/keys", m.Dir)
}

func TestConfigGet(t *testing.T) {
	t.Cleanup(func() {
		settings = &config.Settings{}
		configGetCmd.SetOut(nil)
	})
	settings = &config.Settings{InstanceType: "t2.micro"}

	var buf bytes.Buffer
	configGetCmd.SetOut(&buf)
	require.NoError(t, runConfigGet(configGetCmd, []string{"instance-type"}))
	assert.Equal(t, "t2.micro\n", buf.String())

	assert.ErrorContains(t, runConfigGet(configGetCmd, []string{"colour"}), "unknown setting")
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "Version:    "+Version)
}

func TestPrompterFollowsYes(t *testing.T) {
	t.Cleanup(func() { viper.Set("yes", false) })

	viper.Set("yes", true)
	ok, err := newPrompter(versionCmd).Confirm("Proceed?", false)
	require.NoError(t, err)
	assert.True(t, ok)
}
