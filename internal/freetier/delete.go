package freetier

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/provider"
	"github.com/vietdv277/awsfree/pkg/types"
)

// DeleteRequest describes a delete invocation
type DeleteRequest struct {
	InstanceID string // empty selects the managed instance
	Force      bool   // skip confirmation
}

// Delete terminates an instance after confirmation
func (s *Service) Delete(ctx context.Context, req DeleteRequest) error {
	out := s.out()

	id := req.InstanceID
	if id == "" {
		picked, err := s.pickManaged(ctx)
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		id = picked
	}

	inst, err := s.Compute.GetInstance(ctx, id)
	if err != nil {
		return err
	}

	if inst.IsTerminated() {
		fmt.Fprintf(out, "Instance %s is already terminated\n", ui.IDStyle.Render(id))
		return nil
	}

	ui.PrintInstanceDetails(out, inst)

	if !req.Force {
		ok, err := s.Prompter.Confirm(fmt.Sprintf("Terminate instance %s?", id), true)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Deletion cancelled")
			return nil
		}
	}

	change, err := s.Compute.TerminateInstance(ctx, id)
	if err != nil {
		return err
	}

	clog.FromContext(ctx).Debug("terminate requested", "id", id, "previous", change.Previous, "current", change.Current)
	fmt.Fprintf(out, "Instance %s: %s -> %s\n", ui.IDStyle.Render(id), change.Previous, ui.StateStyle(change.Current).Render(string(change.Current)))

	return nil
}

// pickManaged finds the instance to delete when none was named. It returns
// "" when there is nothing to delete.
func (s *Service) pickManaged(ctx context.Context) (string, error) {
	out := s.out()

	managed, err := s.Compute.ListInstances(ctx, &provider.InstanceFilter{
		States:       types.ActiveStates,
		InstanceType: s.Options.InstanceType,
	})
	if err != nil {
		return "", fmt.Errorf("finding free tier instances: %w", err)
	}

	switch len(managed) {
	case 0:
		fmt.Fprintf(out, "No free tier instances found in region %s\n", s.region())
		return "", nil
	case 1:
		return managed[0].ID, nil
	}

	picked, err := s.Prompter.SelectInstance("Select the instance to delete", managed)
	if err != nil {
		return "", err
	}
	return picked.ID, nil
}
