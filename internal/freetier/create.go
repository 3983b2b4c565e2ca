package freetier

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/vietdv277/awsfree/internal/prompt"
	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/provider"
	"github.com/vietdv277/awsfree/pkg/types"
)

// CreateRequest describes a create invocation
type CreateRequest struct {
	KeyName string // empty selects the default key
	Wait    bool
}

// Create launches the free tier instance unless one already exists
func (s *Service) Create(ctx context.Context, req CreateRequest) (*types.Instance, error) {
	log := clog.FromContext(ctx)
	out := s.out()
	region := s.region()

	fmt.Fprintf(out, "Creating free tier %s instance in %s\n", s.Options.InstanceType, ui.NameStyle.Render(region))

	// Enforce a single active instance of the managed type
	existing, err := s.Compute.ListInstances(ctx, &provider.InstanceFilter{
		States:       types.ActiveStates,
		InstanceType: s.Options.InstanceType,
	})
	if err != nil {
		return nil, fmt.Errorf("checking existing instances: %w", err)
	}
	if len(existing) > 0 {
		fmt.Fprintln(out, ui.ErrorStyle.Render("A free tier instance already exists:"))
		ui.PrintInstanceTable(out, existing)
		return nil, &FreeTierLimitError{Region: region, Instances: existing}
	}

	keyName, err := s.resolveKey(ctx, req.KeyName)
	if err != nil {
		return nil, err
	}

	image, err := s.Compute.LatestImage(ctx, &UbuntuImages)
	if err != nil {
		return nil, fmt.Errorf("resolving Ubuntu image: %w", err)
	}
	fmt.Fprintf(out, "Image:          %s %s\n", ui.IDStyle.Render(image.ID), ui.MutedStyle.Render(image.Name))

	sg, err := s.Compute.EnsureSecurityGroup(ctx, s.Options.SecurityGroup)
	if err != nil {
		return nil, fmt.Errorf("preparing security group: %w", err)
	}
	if sg.Created {
		fmt.Fprintf(out, "Security group: %s %s\n", ui.IDStyle.Render(sg.ID), ui.MutedStyle.Render("(created, ssh open)"))
	} else {
		fmt.Fprintf(out, "Security group: %s\n", ui.IDStyle.Render(sg.ID))
	}

	id, err := s.Compute.RunInstance(ctx, &provider.RunOptions{
		ImageID:          image.ID,
		InstanceType:     s.Options.InstanceType,
		KeyName:          keyName,
		SecurityGroupIDs: []string{sg.ID},
		Tags:             managedTags,
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Instance %s launched\n", ui.IDStyle.Render(id))

	if !req.Wait {
		fmt.Fprintf(out, "Not waiting for it to start; check with 'awsfree list %s'\n", region)
		return &types.Instance{
			ID:      id,
			State:   types.InstanceStatePending,
			Type:    s.Options.InstanceType,
			KeyName: keyName,
		}, nil
	}

	fmt.Fprintln(out, ui.MutedStyle.Render("Waiting for the instance to enter the running state..."))
	inst, err := s.Compute.WaitRunning(ctx, id, s.Options.WaitTimeout)
	if err != nil {
		return nil, err
	}
	log.Debug("instance running", "id", inst.ID, "public_ip", inst.PublicIP)

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.RunningStyle.Render("Instance is running"))
	ui.PrintInstanceDetails(out, inst)
	if keyName != "" && inst.PublicIP != "" {
		fmt.Fprintf(out, "\nConnect with: awsfree ssh %s %s\n", inst.ID, region)
	}

	return inst, nil
}

// resolveKey picks the key pair for a launch. Key manager failures are
// reported and the launch continues without a key pair; an unanswered
// prompt aborts the launch.
func (s *Service) resolveKey(ctx context.Context, requested string) (string, error) {
	log := clog.FromContext(ctx)
	out := s.out()

	if requested != "" {
		if s.Keys != nil && !s.Keys.HasLocal(requested) {
			priv, _ := s.Keys.Paths(requested)
			log.Warn("private key not found locally; ssh will not work from this machine", "key", requested, "path", priv)
		}
		fmt.Fprintf(out, "Key pair:       %s\n", ui.NameStyle.Render(requested))
		return requested, nil
	}

	if s.Keys == nil {
		log.Warn("no key manager configured, launching without a key pair")
		return "", nil
	}

	name := s.Options.DefaultKeyName
	if !s.Keys.HasLocal(name) {
		ok, err := s.Prompter.Confirm(fmt.Sprintf("Key pair %q not found locally. Create it?", name), true)
		if err != nil {
			return "", err
		}
		if !ok {
			log.Warn("continuing without a key pair; the instance will not be reachable over ssh")
			return "", nil
		}
	}

	kp, err := s.Keys.EnsureRegistered(ctx, name)
	if errors.Is(err, prompt.ErrNoInput) {
		return "", err
	}
	if err != nil {
		log.Warn("continuing without a key pair", "key", name, "error", err)
		return "", nil
	}

	fmt.Fprintf(out, "Key pair:       %s\n", ui.NameStyle.Render(kp.Name))
	return kp.Name, nil
}
