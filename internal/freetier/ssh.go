package freetier

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/kballard/go-shellquote"

	"github.com/vietdv277/awsfree/internal/runner"
	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/provider"
)

// SSH opens an interactive ssh session to a running instance
func (s *Service) SSH(ctx context.Context, instanceID string) error {
	log := clog.FromContext(ctx)
	out := s.out()

	id := instanceID
	if id == "" {
		running, err := s.Compute.ListInstances(ctx, nil)
		if err != nil {
			return fmt.Errorf("listing running instances: %w", err)
		}

		if len(running) == 0 {
			fmt.Fprintf(out, "No running instances found in region %s\n", s.region())
			return nil
		}

		ui.PrintInstanceTable(out, running)
		if len(running) == 1 {
			id = running[0].ID
		} else {
			picked, err := s.Prompter.SelectInstance("Select the instance to connect to", running)
			if err != nil {
				return err
			}
			id = picked.ID
		}
	}

	inst, err := s.Compute.GetInstance(ctx, id)
	if err != nil {
		return err
	}

	if !inst.IsRunning() {
		return fmt.Errorf("instance %s is %s: %w", id, inst.State, provider.ErrNotRunning)
	}

	if inst.PublicIP == "" {
		return fmt.Errorf("instance %s has no public IP address", id)
	}

	if inst.KeyName == "" {
		s.offerKeyForFutureInstances(ctx)
		return fmt.Errorf("instance %s has no key pair associated; it cannot be reached over ssh", id)
	}

	keyPath, _ := s.Keys.Paths(inst.KeyName)
	if _, err := os.Stat(keyPath); err != nil {
		return fmt.Errorf("private key %s not found; copy the key you launched %s with to that path and run 'chmod 600 %s'", keyPath, id, keyPath)
	}

	args := []string{"-i", keyPath, fmt.Sprintf("%s@%s", s.Options.SSHUser, inst.PublicIP)}
	fmt.Fprintf(out, "Connecting: %s\n", ui.MutedStyle.Render(shellquote.Join(append([]string{"ssh"}, args...)...)))

	if _, err := runner.Require(s.Runner, "ssh"); err != nil {
		return err
	}

	log.Debug("starting ssh session", "id", id, "host", inst.PublicIP, "key", keyPath)
	return s.Runner.Run(ctx, "ssh", args...)
}

// offerKeyForFutureInstances creates a key pair so that the next instance
// can be launched with one
func (s *Service) offerKeyForFutureInstances(ctx context.Context) {
	if s.Keys == nil {
		return
	}

	name := fmt.Sprintf("ec2-free-key-%d", time.Now().Unix())
	ok, err := s.Prompter.Confirm(fmt.Sprintf("This instance was launched without a key pair. Create key pair %q for future instances?", name), true)
	if err != nil || !ok {
		return
	}

	kp, err := s.Keys.Create(ctx, name)
	if err != nil {
		clog.FromContext(ctx).Warn("failed to create key pair", "key", name, "error", err)
		return
	}
	fmt.Fprintf(s.out(), "Created key pair %s; launch new instances with 'awsfree create %s %s'\n", ui.NameStyle.Render(kp.Name), kp.Name, s.region())
}
