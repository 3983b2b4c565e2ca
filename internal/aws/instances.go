package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"github.com/vietdv277/awsfree/pkg/provider"
	"github.com/vietdv277/awsfree/pkg/types"
)

// ListInstances returns instances matching the filter
func (c *Client) ListInstances(ctx context.Context, filter *provider.InstanceFilter) ([]types.Instance, error) {
	if filter == nil {
		filter = &provider.InstanceFilter{}
	}

	// Default to running instances
	states := types.StateStrings(filter.States)
	if len(states) == 0 {
		states = []string{string(types.InstanceStateRunning)}
	}

	// Build filters
	filters := []ec2types.Filter{
		{
			Name:   aws.String("instance-state-name"),
			Values: states,
		},
	}

	if filter.InstanceType != "" {
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("instance-type"),
			Values: []string{filter.InstanceType},
		})
	}

	input := &ec2.DescribeInstancesInput{
		Filters: filters,
	}

	clog.FromContext(ctx).Debug("describing instances", "region", c.region, "states", states, "type", filter.InstanceType)

	var instances []types.Instance
	paginator := ec2.NewDescribeInstancesPaginator(c.EC2, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", Classify(err))
		}

		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, toInstance(inst))
			}
		}
	}

	return instances, nil
}

// GetInstance returns a single instance by ID
func (c *Client) GetInstance(ctx context.Context, id string) (*types.Instance, error) {
	output, err := c.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", id, Classify(err))
	}

	if len(output.Reservations) == 0 || len(output.Reservations[0].Instances) == 0 {
		return nil, fmt.Errorf("instance %s: %w", id, provider.ErrNotFound)
	}

	inst := toInstance(output.Reservations[0].Instances[0])
	return &inst, nil
}

// RunInstance launches exactly one instance
func (c *Client) RunInstance(ctx context.Context, opts *provider.RunOptions) (string, error) {
	log := clog.FromContext(ctx)

	if opts == nil || opts.ImageID == "" {
		return "", fmt.Errorf("image id required")
	}

	input := &ec2.RunInstancesInput{
		ImageId:          aws.String(opts.ImageID),
		InstanceType:     ec2types.InstanceType(opts.InstanceType),
		MinCount:         aws.Int32(1),
		MaxCount:         aws.Int32(1),
		SecurityGroupIds: opts.SecurityGroupIDs,
		// Detailed monitoring is billed separately
		Monitoring: &ec2types.RunInstancesMonitoringEnabled{
			Enabled: aws.Bool(false),
		},
		ClientToken: aws.String(uuid.NewString()),
	}

	if opts.KeyName != "" {
		input.KeyName = aws.String(opts.KeyName)
	}

	if len(opts.Tags) > 0 {
		input.TagSpecifications = tagSpecification(ec2types.ResourceTypeInstance, opts.Tags)
	}

	output, err := c.EC2.RunInstances(ctx, input)
	if err != nil {
		return "", fmt.Errorf("launching instance: %w", Classify(err))
	}

	if output == nil || len(output.Instances) == 0 || output.Instances[0].InstanceId == nil {
		return "", fmt.Errorf("no instance returned from launch")
	}

	id := *output.Instances[0].InstanceId
	log.Info("launched instance", "id", id, "type", opts.InstanceType, "region", c.region)

	return id, nil
}

// WaitRunning blocks until the instance reaches the running state
func (c *Client) WaitRunning(ctx context.Context, id string, maxWait time.Duration) (*types.Instance, error) {
	log := clog.FromContext(ctx)
	log.Info("waiting for instance to enter running state", "id", id, "max_wait", maxWait)

	waiter := ec2.NewInstanceRunningWaiter(c.EC2)
	output, err := waiter.WaitForOutput(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	}, maxWait)
	if err != nil {
		return nil, fmt.Errorf("waiting for running state: %w", Classify(err))
	}

	if len(output.Reservations) == 0 || len(output.Reservations[0].Instances) == 0 {
		return nil, fmt.Errorf("instance %s not found in waiter output", id)
	}

	inst := toInstance(output.Reservations[0].Instances[0])
	return &inst, nil
}

// TerminateInstance terminates an instance
func (c *Client) TerminateInstance(ctx context.Context, id string) (*provider.StateChange, error) {
	output, err := c.EC2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("terminating instance %s: %w", id, Classify(err))
	}

	change := &provider.StateChange{InstanceID: id}
	if len(output.TerminatingInstances) > 0 {
		ti := output.TerminatingInstances[0]
		if ti.PreviousState != nil {
			change.Previous = types.InstanceState(ti.PreviousState.Name)
		}
		if ti.CurrentState != nil {
			change.Current = types.InstanceState(ti.CurrentState.Name)
		}
	}

	clog.FromContext(ctx).Info("terminating instance", "id", id, "from", change.Previous, "to", change.Current)

	return change, nil
}

// toInstance converts an EC2 Instance to our Instance type
func toInstance(i ec2types.Instance) types.Instance {
	inst := types.Instance{
		ID:    deref(i.InstanceId),
		State: types.InstanceStateUnknown,
		Type:  string(i.InstanceType),
		Tags:  make(map[string]string),
	}

	if i.State != nil {
		inst.State = types.InstanceState(i.State.Name)
	}

	if i.PrivateIpAddress != nil {
		inst.PrivateIP = *i.PrivateIpAddress
	}

	if i.PublicIpAddress != nil {
		inst.PublicIP = *i.PublicIpAddress
	}

	if i.Placement != nil && i.Placement.AvailabilityZone != nil {
		inst.AZ = *i.Placement.AvailabilityZone
	}

	if i.KeyName != nil {
		inst.KeyName = *i.KeyName
	}

	if i.LaunchTime != nil {
		inst.LaunchTime = *i.LaunchTime
	}

	// Extract tags
	for _, tag := range i.Tags {
		key := deref(tag.Key)
		value := deref(tag.Value)
		inst.Tags[key] = value

		if key == "Name" {
			inst.Name = value
		}
	}

	return inst
}

// tagSpecification builds a tag specification with keys in stable order
func tagSpecification(rt ec2types.ResourceType, tags map[string]string) []ec2types.TagSpecification {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ec2Tags := make([]ec2types.Tag, 0, len(keys))
	for _, k := range keys {
		ec2Tags = append(ec2Tags, ec2types.Tag{
			Key:   aws.String(k),
			Value: aws.String(tags[k]),
		})
	}

	return []ec2types.TagSpecification{
		{
			ResourceType: rt,
			Tags:         ec2Tags,
		},
	}
}

// deref safely dereferences a string pointer
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
