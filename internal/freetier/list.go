package freetier

import (
	"context"
	"fmt"

	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/provider"
	"github.com/vietdv277/awsfree/pkg/types"
)

// listStates are the states shown by List
var listStates = []types.InstanceState{
	types.InstanceStatePending,
	types.InstanceStateRunning,
	types.InstanceStateShuttingDown,
	types.InstanceStateStopping,
	types.InstanceStateStopped,
}

// List prints every non-terminated instance in the region
func (s *Service) List(ctx context.Context) ([]types.Instance, error) {
	out := s.out()

	found, err := s.Compute.ListInstances(ctx, &provider.InstanceFilter{States: listStates})
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}

	// Terminated instances linger in describe results for a while
	instances := make([]types.Instance, 0, len(found))
	for _, inst := range found {
		if !inst.IsTerminated() {
			instances = append(instances, inst)
		}
	}

	if len(instances) == 0 {
		fmt.Fprintf(out, "No instances found in region %s\n", s.region())
		return instances, nil
	}

	fmt.Fprintf(out, "Instances in %s\n", ui.NameStyle.Render(s.region()))
	ui.PrintInstanceTable(out, instances)

	return instances, nil
}
