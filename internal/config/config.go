package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in defaults
const (
	DefaultRegion        = "us-west-2"
	DefaultKeyName       = "aws_ec2_free"
	DefaultInstanceType  = "t3.micro"
	DefaultSSHUser       = "ubuntu"
	DefaultSecurityGroup = "ec2-free-tier-sg"
	DefaultSSHDir        = "~/.ssh"
	DefaultWaitTimeout   = 5 * time.Minute
)

// Key generators
const (
	KeyGeneratorSSHKeygen = "ssh-keygen"
	KeyGeneratorNative    = "native"
)

// Settings represents the settings file (~/.config/awsfree/config.yaml).
// Empty fields fall back to the built-in defaults.
type Settings struct {
	Region        string `yaml:"region,omitempty"`
	KeyName       string `yaml:"key_name,omitempty"`
	InstanceType  string `yaml:"instance_type,omitempty"`
	SSHUser       string `yaml:"ssh_user,omitempty"`
	SecurityGroup string `yaml:"security_group,omitempty"`
	SSHDir        string `yaml:"ssh_dir,omitempty"`
	KeyGenerator  string `yaml:"key_generator,omitempty"` // ssh-keygen or native
	WaitTimeout   string `yaml:"wait_timeout,omitempty"`  // Go duration, e.g. 5m
}

// Keys lists the settings accepted by Set and Get
var Keys = []string{
	"region",
	"key_name",
	"instance_type",
	"ssh_user",
	"security_group",
	"ssh_dir",
	"key_generator",
	"wait_timeout",
}

// GetConfigDir returns the config directory path, honoring XDG_CONFIG_HOME
func GetConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "awsfree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".awsfree"
	}
	return filepath.Join(home, ".config", "awsfree")
}

// GetConfigPath returns the default settings file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load reads the settings file at path. A missing file yields empty settings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &s, nil
}

// Save writes the settings to path, creating the directory if needed
func Save(path string, s *Settings) error {
	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that have a restricted form
func (s *Settings) Validate() error {
	switch s.KeyGenerator {
	case "", KeyGeneratorSSHKeygen, KeyGeneratorNative:
	default:
		return fmt.Errorf("key_generator must be %q or %q, got %q", KeyGeneratorSSHKeygen, KeyGeneratorNative, s.KeyGenerator)
	}

	if s.WaitTimeout != "" {
		d, err := time.ParseDuration(s.WaitTimeout)
		if err != nil {
			return fmt.Errorf("wait_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("wait_timeout must be positive, got %s", s.WaitTimeout)
		}
	}

	return nil
}

// Set updates a single setting by key
func (s *Settings) Set(key, value string) error {
	field, ok := s.field(key)
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys, ", "))
	}

	old := *field
	*field = value
	if err := s.Validate(); err != nil {
		*field = old
		return err
	}
	return nil
}

// Get returns the stored value for key, without defaults applied
func (s *Settings) Get(key string) (string, bool) {
	field, ok := s.field(key)
	if !ok {
		return "", false
	}
	return *field, true
}

func (s *Settings) field(key string) (*string, bool) {
	switch strings.ReplaceAll(strings.ToLower(key), "-", "_") {
	case "region":
		return &s.Region, true
	case "key_name":
		return &s.KeyName, true
	case "instance_type":
		return &s.InstanceType, true
	case "ssh_user":
		return &s.SSHUser, true
	case "security_group":
		return &s.SecurityGroup, true
	case "ssh_dir":
		return &s.SSHDir, true
	case "key_generator":
		return &s.KeyGenerator, true
	case "wait_timeout":
		return &s.WaitTimeout, true
	}
	return nil, false
}

// Effective returns every key with defaults applied, sorted by key
func (s *Settings) Effective() [][2]string {
	values := map[string]string{
		"region":         s.Region,
		"key_name":       s.KeyNameOrDefault(),
		"instance_type":  s.InstanceTypeOrDefault(),
		"ssh_user":       s.SSHUserOrDefault(),
		"security_group": s.SecurityGroupOrDefault(),
		"ssh_dir":        s.SSHDirOrDefault(),
		"key_generator":  s.KeyGeneratorOrDefault(),
		"wait_timeout":   s.Wait().String(),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, values[k]})
	}
	return out
}

func (s *Settings) KeyNameOrDefault() string {
	return orDefault(s.KeyName, DefaultKeyName)
}

func (s *Settings) InstanceTypeOrDefault() string {
	return orDefault(s.InstanceType, DefaultInstanceType)
}

func (s *Settings) SSHUserOrDefault() string {
	return orDefault(s.SSHUser, DefaultSSHUser)
}

func (s *Settings) SecurityGroupOrDefault() string {
	return orDefault(s.SecurityGroup, DefaultSecurityGroup)
}

func (s *Settings) KeyGeneratorOrDefault() string {
	return orDefault(s.KeyGenerator, KeyGeneratorSSHKeygen)
}

// SSHDirOrDefault returns the ssh directory with ~ expanded
func (s *Settings) SSHDirOrDefault() string {
	return ExpandHome(orDefault(s.SSHDir, DefaultSSHDir))
}

// Wait returns the running-state wait timeout
func (s *Settings) Wait() time.Duration {
	if s.WaitTimeout == "" {
		return DefaultWaitTimeout
	}
	d, err := time.ParseDuration(s.WaitTimeout)
	if err != nil || d <= 0 {
		return DefaultWaitTimeout
	}
	return d
}

// ResolveRegion returns the first non-empty candidate, or DefaultRegion
func ResolveRegion(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return DefaultRegion
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
