// Package keys manages the local SSH key pair and its registration as an
// EC2 key pair. Local files are the source of truth; only the public half is
// ever sent to AWS.
package keys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/crypto/ssh"

	"github.com/vietdv277/awsfree/internal/prompt"
	"github.com/vietdv277/awsfree/internal/runner"
	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/provider"
	"github.com/vietdv277/awsfree/pkg/types"
)

const (
	dirMode        os.FileMode = 0700
	privateKeyMode os.FileMode = 0600
	publicKeyMode  os.FileMode = 0644
)

// Manager creates key pairs under Dir and registers them with Registry
type Manager struct {
	Dir       string
	Registry  provider.KeyRegistry
	Generator Generator
	// Fallback is offered when Generator's tool is not installed
	Fallback Generator
	Prompter prompt.Prompter
	Out      io.Writer
}

// Paths returns the private and public key paths for name
func (m *Manager) Paths(name string) (string, string) {
	priv := filepath.Join(m.Dir, name)
	return priv, priv + ".pub"
}

// HasLocal reports whether the private key for name exists
func (m *Manager) HasLocal(name string) bool {
	priv, _ := m.Paths(name)
	return fileExists(priv)
}

// Create makes sure the key pair exists locally and is registered
func (m *Manager) Create(ctx context.Context, name string) (*types.KeyPair, error) {
	kp, err := m.Ensure(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.Register(ctx, kp)
}

// EnsureRegistered is Create without the duplicate prompt: a key pair that
// is already registered under name is assumed to match the local files.
func (m *Manager) EnsureRegistered(ctx context.Context, name string) (*types.KeyPair, error) {
	kp, err := m.Ensure(ctx, name)
	if err != nil {
		return nil, err
	}

	if m.Registry == nil {
		return nil, fmt.Errorf("no key registry configured")
	}

	exists, err := m.Registry.KeyPairExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		kp.Registered = true
		return kp, nil
	}

	if err := m.importKey(ctx, kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// Ensure makes sure both key files exist. Existing files are never
// regenerated or overwritten.
func (m *Manager) Ensure(ctx context.Context, name string) (*types.KeyPair, error) {
	log := clog.FromContext(ctx)

	if err := ValidateName(name); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.Dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create ssh directory %s: %w", m.Dir, err)
	}

	priv, pub := m.Paths(name)
	kp := &types.KeyPair{Name: name, PrivateKeyPath: priv, PublicKeyPath: pub}

	privExists, pubExists := fileExists(priv), fileExists(pub)
	switch {
	case privExists && pubExists:
		log.Debug("using existing key files", "private", priv)

	case privExists:
		log.Info("deriving public key from private key", "private", priv)
		if err := derivePublicKey(priv, pub, name); err != nil {
			return nil, err
		}

	case pubExists:
		return nil, fmt.Errorf("found %s but not its private key %s; remove the public key or restore the private key", pub, priv)

	default:
		if err := m.generate(ctx, priv, name+"@awsfree"); err != nil {
			return nil, err
		}
		fmt.Fprintf(m.out(), "Generated key pair %s\n", ui.IDStyle.Render(priv))
	}

	// Keys readable by others are rejected by ssh
	if err := os.Chmod(priv, privateKeyMode); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", priv, err)
	}
	if err := os.Chmod(pub, publicKeyMode); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", pub, err)
	}

	fp, err := localFingerprint(pub)
	if err != nil {
		return nil, err
	}
	kp.Fingerprint = fp

	return kp, nil
}

func (m *Manager) generate(ctx context.Context, priv, comment string) error {
	gen := m.Generator
	if gen == nil {
		gen = Native{}
	}

	err := gen.Generate(ctx, priv, comment)

	var missing *runner.MissingDependencyError
	if errors.As(err, &missing) && m.Fallback != nil && m.Prompter != nil {
		fmt.Fprintf(m.out(), "%s is not installed. %s\n", missing.Tool, ui.HintStyle.Render(missing.Hint))
		ok, perr := m.Prompter.Confirm(fmt.Sprintf("Generate the key with the built-in %s generator instead?", m.Fallback.Name()), true)
		if perr != nil {
			return perr
		}
		if ok {
			removePartial(priv)
			gen = m.Fallback
			err = gen.Generate(ctx, priv, comment)
		}
	}

	if err != nil {
		removePartial(priv)
		return err
	}

	clog.FromContext(ctx).Info("generated key pair", "generator", gen.Name(), "path", priv)
	return nil
}

// Register imports the public key as an EC2 key pair. When the name is
// already taken the user either reuses the existing key pair or picks a new
// name, in which case the local files are renamed and the import retried once.
func (m *Manager) Register(ctx context.Context, kp *types.KeyPair) (*types.KeyPair, error) {
	if m.Registry == nil {
		return nil, fmt.Errorf("no key registry configured")
	}

	exists, err := m.Registry.KeyPairExists(ctx, kp.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return m.resolveDuplicate(ctx, kp)
	}

	err = m.importKey(ctx, kp)
	if errors.Is(err, provider.ErrDuplicate) {
		return m.resolveDuplicate(ctx, kp)
	}
	if err != nil {
		return nil, err
	}
	return kp, nil
}

func (m *Manager) importKey(ctx context.Context, kp *types.KeyPair) error {
	material, err := os.ReadFile(kp.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}

	if _, _, _, _, err := ssh.ParseAuthorizedKey(material); err != nil {
		return fmt.Errorf("%s is not a valid OpenSSH public key: %w", kp.PublicKeyPath, err)
	}

	fp, err := m.Registry.ImportKeyPair(ctx, kp.Name, material)
	if err != nil {
		return err
	}

	kp.Registered = true
	if fp != "" {
		kp.Fingerprint = fp
	}
	fmt.Fprintf(m.out(), "Registered key pair %s with AWS\n", ui.NameStyle.Render(kp.Name))
	return nil
}

func (m *Manager) resolveDuplicate(ctx context.Context, kp *types.KeyPair) (*types.KeyPair, error) {
	reuse, err := m.confirm(fmt.Sprintf("Key pair %q already exists in AWS. Use the existing key pair?", kp.Name), true)
	if err != nil {
		return nil, err
	}
	if reuse {
		fmt.Fprintf(m.out(), "Using existing key pair %s %s\n", ui.NameStyle.Render(kp.Name),
			ui.MutedStyle.Render("(it must match "+kp.PrivateKeyPath+")"))
		kp.Registered = true
		return kp, nil
	}

	if m.Prompter == nil {
		return nil, fmt.Errorf("key pair %s: %w", kp.Name, provider.ErrDuplicate)
	}

	suggested := fmt.Sprintf("%s-%d", kp.Name, time.Now().Unix())
	newName, err := m.Prompter.Input("New key pair name", suggested)
	if err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if err := ValidateName(newName); err != nil {
		return nil, err
	}
	if newName == kp.Name {
		return nil, fmt.Errorf("key pair %s: %w", kp.Name, provider.ErrDuplicate)
	}

	renamed, err := m.rename(kp, newName)
	if err != nil {
		return nil, err
	}

	// Retry once under the new name
	if err := m.importKey(ctx, renamed); err != nil {
		return nil, fmt.Errorf("registering key pair as %s: %w", newName, err)
	}
	return renamed, nil
}

func (m *Manager) rename(kp *types.KeyPair, newName string) (*types.KeyPair, error) {
	priv, pub := m.Paths(newName)
	if fileExists(priv) || fileExists(pub) {
		return nil, fmt.Errorf("key files for %s already exist in %s", newName, m.Dir)
	}

	if err := os.Rename(kp.PrivateKeyPath, priv); err != nil {
		return nil, fmt.Errorf("failed to rename private key: %w", err)
	}
	if err := os.Rename(kp.PublicKeyPath, pub); err != nil {
		// Put the private key back so the pair stays together
		_ = os.Rename(priv, kp.PrivateKeyPath)
		return nil, fmt.Errorf("failed to rename public key: %w", err)
	}

	fmt.Fprintf(m.out(), "Renamed local key files to %s\n", ui.IDStyle.Render(priv))

	return &types.KeyPair{
		Name:           newName,
		PrivateKeyPath: priv,
		PublicKeyPath:  pub,
		Fingerprint:    kp.Fingerprint,
	}, nil
}

func (m *Manager) confirm(question string, defaultYes bool) (bool, error) {
	if m.Prompter == nil {
		return defaultYes, nil
	}
	return m.Prompter.Confirm(question, defaultYes)
}

func (m *Manager) out() io.Writer {
	if m.Out == nil {
		return io.Discard
	}
	return m.Out
}

// ValidateName rejects names that would escape the ssh directory
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("key name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid key name %q", name)
	}
	return nil
}

func derivePublicKey(priv, pub, comment string) error {
	data, err := os.ReadFile(priv)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return fmt.Errorf("%s is passphrase protected; recreate %s with 'ssh-keygen -y -f %s > %s'", priv, pub, priv, pub)
		}
		return fmt.Errorf("failed to parse private key %s: %w", priv, err)
	}

	if err := os.WriteFile(pub, authorizedKey(signer.PublicKey(), comment), publicKeyMode); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

func localFingerprint(pub string) (string, error) {
	data, err := os.ReadFile(pub)
	if err != nil {
		return "", fmt.Errorf("failed to read public key: %w", err)
	}

	key, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return "", fmt.Errorf("%s is not a valid OpenSSH public key: %w", pub, err)
	}
	return ssh.FingerprintSHA256(key), nil
}

func removePartial(priv string) {
	_ = os.Remove(priv)
	_ = os.Remove(priv + ".pub")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
