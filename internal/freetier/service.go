// Package freetier implements the operations on the single free tier
// instance: create, list, delete, ssh, and opening the web console.
package freetier

import (
	"io"
	"time"

	"github.com/pkg/browser"

	"github.com/vietdv277/awsfree/internal/keys"
	"github.com/vietdv277/awsfree/internal/prompt"
	"github.com/vietdv277/awsfree/internal/runner"
	"github.com/vietdv277/awsfree/pkg/provider"
)

// Tags applied to every instance this tool launches
var managedTags = map[string]string{
	"Name":      "free-tier",
	"Purpose":   "FreeTier",
	"CreatedBy": "awsfree",
}

// CanonicalOwner is the account that publishes the official Ubuntu images
const CanonicalOwner = "099720109477"

// UbuntuImages resolves the newest Ubuntu LTS server image, preferring
// 24.04 on gp3 and falling back to 22.04
var UbuntuImages = provider.ImageQuery{
	Owner: CanonicalOwner,
	NamePatterns: []string{
		"ubuntu/images/hvm-ssd-gp3/ubuntu-noble-24.04-amd64-server-*",
		"ubuntu/images/hvm-ssd/ubuntu-noble-24.04-amd64-server-*",
		"ubuntu/images/hvm-ssd/ubuntu-jammy-22.04-amd64-server-*",
	},
	Architecture: "x86_64",
}

// Options are the tunables read from settings
type Options struct {
	InstanceType   string
	SecurityGroup  string
	SSHUser        string
	DefaultKeyName string
	WaitTimeout    time.Duration
}

// Opener opens a URL in the user's browser
type Opener interface {
	Open(url string) error
}

// BrowserOpener opens URLs with the platform's default browser
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	return browser.OpenURL(url)
}

// Service wires the provider, key manager and terminal together
type Service struct {
	Compute  provider.ComputeProvider
	Identity provider.IdentityProvider
	Keys     *keys.Manager
	Runner   runner.Runner
	Prompter prompt.Prompter
	Opener   Opener
	Out      io.Writer
	Options  Options
}

func (s *Service) region() string {
	return s.Compute.Region()
}

func (s *Service) out() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}
