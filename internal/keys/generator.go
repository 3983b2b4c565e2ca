package keys

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/vietdv277/awsfree/internal/runner"
)

// Generator creates a private key at path and its OpenSSH public key at
// path + ".pub"
type Generator interface {
	Name() string
	Generate(ctx context.Context, path, comment string) error
}

// SSHKeygen generates 2048-bit RSA keys with the ssh-keygen tool
type SSHKeygen struct {
	Runner runner.Runner
}

func (g *SSHKeygen) Name() string {
	return "ssh-keygen"
}

func (g *SSHKeygen) Generate(ctx context.Context, path, comment string) error {
	if _, err := runner.Require(g.Runner, "ssh-keygen"); err != nil {
		return err
	}

	_, err := g.Runner.Output(ctx, "ssh-keygen",
		"-t", "rsa",
		"-b", "2048",
		"-f", path,
		"-N", "",
		"-C", comment,
	)
	if err != nil {
		return fmt.Errorf("generating key with ssh-keygen: %w", err)
	}
	return nil
}

// Native generates ed25519 keys in-process
type Native struct{}

func (Native) Name() string {
	return "native ed25519"
}

func (Native) Generate(_ context.Context, path, comment string) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return fmt.Errorf("failed to convert public key: %w", err)
	}

	if err := os.WriteFile(path, pem.EncodeToMemory(block), privateKeyMode); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	if err := os.WriteFile(path+".pub", authorizedKey(sshPub, comment), publicKeyMode); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}

// authorizedKey renders pub in authorized_keys format with a trailing comment
func authorizedKey(pub ssh.PublicKey, comment string) []byte {
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub)))
	if comment != "" {
		line += " " + comment
	}
	return []byte(line + "\n")
}
