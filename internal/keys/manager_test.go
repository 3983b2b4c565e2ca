package keys

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/vietdv277/awsfree/internal/aws"
	"github.com/vietdv277/awsfree/internal/aws/awstest"
	"github.com/vietdv277/awsfree/internal/prompt"
	"github.com/vietdv277/awsfree/internal/runner"
)

type countingGenerator struct {
	Generator
	calls int
}

func (c *countingGenerator) Generate(ctx context.Context, path, comment string) error {
	c.calls++
	return c.Generator.Generate(ctx, path, comment)
}

func newManager(t *testing.T) (*Manager, *awstest.FakeEC2) {
	t.Helper()
	fake := awstest.NewFakeEC2()
	return &Manager{
		Dir:       filepath.Join(t.TempDir(), ".ssh"),
		Registry:  aws.New(fake, nil, "us-west-2"),
		Generator: Native{},
		Prompter:  &prompt.Scripted{},
		Out:       &bytes.Buffer{},
	}, fake
}

func mode(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Mode().Perm()
}

func TestEnsureGenerates(t *testing.T) {
	m, _ := newManager(t)

	kp, err := m.Ensure(context.Background(), "aws_ec2_free")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(m.Dir, "aws_ec2_free"), kp.PrivateKeyPath)
	assert.Equal(t, filepath.Join(m.Dir, "aws_ec2_free.pub"), kp.PublicKeyPath)
	assert.True(t, strings.HasPrefix(kp.Fingerprint, "SHA256:"))
	assert.False(t, kp.Registered)

	assert.Equal(t, os.FileMode(0700), mode(t, m.Dir))
	assert.Equal(t, os.FileMode(0600), mode(t, kp.PrivateKeyPath))
	assert.Equal(t, os.FileMode(0644), mode(t, kp.PublicKeyPath))

	// The private key parses and matches the public key
	privData, err := os.ReadFile(kp.PrivateKeyPath)
	require.NoError(t, err)
	signer, err := ssh.ParsePrivateKey(privData)
	require.NoError(t, err)

	pubData, err := os.ReadFile(kp.PublicKeyPath)
	require.NoError(t, err)
	pub, comment, _, _, err := ssh.ParseAuthorizedKey(pubData)
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey().Marshal(), pub.Marshal())
	assert.Equal(t, "aws_ec2_free@awsfree", comment)
}

func TestEnsureIsIdempotent(t *testing.T) {
	m, _ := newManager(t)
	gen := &countingGenerator{Generator: Native{}}
	m.Generator = gen
	ctx := context.Background()

	first, err := m.Ensure(ctx, "aws_ec2_free")
	require.NoError(t, err)
	privBefore, err := os.ReadFile(first.PrivateKeyPath)
	require.NoError(t, err)
	pubBefore, err := os.ReadFile(first.PublicKeyPath)
	require.NoError(t, err)

	second, err := m.Ensure(ctx, "aws_ec2_free")
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	privAfter, err := os.ReadFile(second.PrivateKeyPath)
	require.NoError(t, err)
	pubAfter, err := os.ReadFile(second.PublicKeyPath)
	require.NoError(t, err)
	assert.Equal(t, privBefore, privAfter)
	assert.Equal(t, pubBefore, pubAfter)
}

func TestEnsureFixesPermissions(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	kp, err := m.Ensure(ctx, "loose")
	require.NoError(t, err)
	require.NoError(t, os.Chmod(kp.PrivateKeyPath, 0644))

	_, err = m.Ensure(ctx, "loose")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), mode(t, kp.PrivateKeyPath))
}

func TestEnsureDerivesPublicKey(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	kp, err := m.Ensure(ctx, "derived")
	require.NoError(t, err)
	original, err := os.ReadFile(kp.PublicKeyPath)
	require.NoError(t, err)
	require.NoError(t, os.Remove(kp.PublicKeyPath))

	gen := &countingGenerator{Generator: Native{}}
	m.Generator = gen

	again, err := m.Ensure(ctx, "derived")
	require.NoError(t, err)
	assert.Zero(t, gen.calls)
	assert.Equal(t, kp.Fingerprint, again.Fingerprint)

	derived, err := os.ReadFile(again.PublicKeyPath)
	require.NoError(t, err)
	want, _, _, _, err := ssh.ParseAuthorizedKey(original)
	require.NoError(t, err)
	got, _, _, _, err := ssh.ParseAuthorizedKey(derived)
	require.NoError(t, err)
	assert.Equal(t, want.Marshal(), got.Marshal())
}

func TestEnsurePublicKeyOnly(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, os.MkdirAll(m.Dir, 0700))
	_, pub := m.Paths("orphan")
	require.NoError(t, os.WriteFile(pub, []byte("ssh-ed25519 AAAA orphan\n"), 0644))

	_, err := m.Ensure(context.Background(), "orphan")
	assert.ErrorContains(t, err, "private key")
}

func TestEnsureRejectsBadNames(t *testing.T) {
	m, _ := newManager(t)
	for _, name := range []string{"", "  ", "../evil", "a/b", ".."} {
		_, err := m.Ensure(context.Background(), name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestSSHKeygenGenerator(t *testing.T) {
	m, _ := newManager(t)
	fake := &runner.Fake{
		RunFunc: func(name string, args []string) ([]byte, error) {
			// Stand in for ssh-keygen by writing a real key pair
			path := args[len(args)-5]
			return nil, Native{}.Generate(context.Background(), path, "test")
		},
	}
	m.Generator = &SSHKeygen{Runner: fake}

	kp, err := m.Ensure(context.Background(), "aws_ec2_free")
	require.NoError(t, err)
	require.Len(t, fake.Calls, 1)
	assert.Equal(t, "ssh-keygen -t rsa -b 2048 -f "+kp.PrivateKeyPath+" -N  -C aws_ec2_free@awsfree", fake.Calls[0])
}

func TestSSHKeygenFailureRemovesPartialFiles(t *testing.T) {
	m, _ := newManager(t)
	fake := &runner.Fake{
		RunFunc: func(name string, args []string) ([]byte, error) {
			path := args[len(args)-5]
			_ = os.WriteFile(path, []byte("partial"), 0600)
			return nil, errors.New("exit status 1")
		},
	}
	m.Generator = &SSHKeygen{Runner: fake}

	_, err := m.Ensure(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, m.HasLocal("broken"))
}

func TestFallbackWhenSSHKeygenMissing(t *testing.T) {
	m, _ := newManager(t)
	m.Generator = &SSHKeygen{Runner: &runner.Fake{Missing: map[string]bool{"ssh-keygen": true}}}
	m.Fallback = Native{}

	kp, err := m.Ensure(context.Background(), "aws_ec2_free")
	require.NoError(t, err)
	assert.FileExists(t, kp.PrivateKeyPath)
	assert.Contains(t, m.Out.(*bytes.Buffer).String(), "ssh-keygen is not installed")
}

func TestFallbackDeclined(t *testing.T) {
	m, _ := newManager(t)
	m.Generator = &SSHKeygen{Runner: &runner.Fake{Missing: map[string]bool{"ssh-keygen": true}}}
	m.Fallback = Native{}
	m.Prompter = &prompt.Scripted{Confirms: []bool{false}}

	_, err := m.Ensure(context.Background(), "aws_ec2_free")

	var missing *runner.MissingDependencyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "ssh-keygen", missing.Tool)
	assert.False(t, m.HasLocal("aws_ec2_free"))
}

func TestCreateRegisters(t *testing.T) {
	m, fake := newManager(t)

	kp, err := m.Create(context.Background(), "aws_ec2_free")
	require.NoError(t, err)
	assert.True(t, kp.Registered)
	assert.Equal(t, "fp-aws_ec2_free", kp.Fingerprint)

	pub, err := os.ReadFile(kp.PublicKeyPath)
	require.NoError(t, err)
	assert.Equal(t, pub, fake.ImportedKeys["aws_ec2_free"])
}

func TestRegisterReusesExisting(t *testing.T) {
	m, fake := newManager(t)
	fake.KeyPairs = []ec2types.KeyPairInfo{{KeyName: awssdk.String("aws_ec2_free")}}

	kp, err := m.Create(context.Background(), "aws_ec2_free")
	require.NoError(t, err)
	assert.True(t, kp.Registered)
	assert.Zero(t, fake.Calls["ImportKeyPair"])
}

func TestRegisterRenamesOnConflict(t *testing.T) {
	m, fake := newManager(t)
	fake.KeyPairs = []ec2types.KeyPairInfo{{KeyName: awssdk.String("aws_ec2_free")}}
	m.Prompter = &prompt.Scripted{Confirms: []bool{false}, Inputs: []string{"aws_ec2_free_2"}}

	kp, err := m.Create(context.Background(), "aws_ec2_free")
	require.NoError(t, err)
	assert.Equal(t, "aws_ec2_free_2", kp.Name)
	assert.True(t, kp.Registered)
	assert.Contains(t, fake.ImportedKeys, "aws_ec2_free_2")

	assert.False(t, m.HasLocal("aws_ec2_free"))
	assert.True(t, m.HasLocal("aws_ec2_free_2"))
	assert.FileExists(t, filepath.Join(m.Dir, "aws_ec2_free_2.pub"))
}

func TestEnsureRegistered(t *testing.T) {
	m, fake := newManager(t)
	ctx := context.Background()

	kp, err := m.EnsureRegistered(ctx, "aws_ec2_free")
	require.NoError(t, err)
	assert.True(t, kp.Registered)
	assert.Equal(t, 1, fake.Calls["ImportKeyPair"])

	// Already registered: no prompt, no second import
	m.Prompter = &prompt.Scripted{Confirms: []bool{false}}
	kp, err = m.EnsureRegistered(ctx, "aws_ec2_free")
	require.NoError(t, err)
	assert.True(t, kp.Registered)
	assert.Equal(t, 1, fake.Calls["ImportKeyPair"])
	assert.Empty(t, m.Prompter.(*prompt.Scripted).Questions)
}
