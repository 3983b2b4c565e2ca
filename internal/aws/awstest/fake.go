// Package awstest provides in-memory fakes of the EC2 and STS APIs.
package awstest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

// FakeEC2 keeps instances, images, security groups and key pairs in memory
// and records every call made against it.
type FakeEC2 struct {
	Instances      []ec2types.Instance
	Images         []ec2types.Image
	SecurityGroups []ec2types.SecurityGroup
	KeyPairs       []ec2types.KeyPairInfo

	// Errors forces an operation (by API name) to fail
	Errors map[string]error

	// LaunchState is the state given to instances created by RunInstances
	LaunchState ec2types.InstanceStateName

	Calls           map[string]int
	RunInputs       []*ec2.RunInstancesInput
	TerminateInputs []*ec2.TerminateInstancesInput
	ImportedKeys    map[string][]byte
	DescribeInputs  []*ec2.DescribeInstancesInput
	ImageQueries    []*ec2.DescribeImagesInput
	IngressRequests []*ec2.AuthorizeSecurityGroupIngressInput

	nextID int
}

// NewFakeEC2 returns an empty fake
func NewFakeEC2() *FakeEC2 {
	return &FakeEC2{
		Errors:       make(map[string]error),
		Calls:        make(map[string]int),
		ImportedKeys: make(map[string][]byte),
		LaunchState:  ec2types.InstanceStateNamePending,
	}
}

// APIError builds the error shape the SDK returns for a failed call
func APIError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

// Instance builds an instance fixture
func Instance(id string, state ec2types.InstanceStateName, instanceType string, tags ...string) ec2types.Instance {
	inst := ec2types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: ec2types.InstanceType(instanceType),
		State:        &ec2types.InstanceState{Name: state},
		LaunchTime:   aws.Time(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Placement:    &ec2types.Placement{AvailabilityZone: aws.String("us-west-2a")},
	}
	for i := 0; i+1 < len(tags); i += 2 {
		inst.Tags = append(inst.Tags, ec2types.Tag{Key: aws.String(tags[i]), Value: aws.String(tags[i+1])})
	}
	return inst
}

func (f *FakeEC2) record(op string) error {
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[op]++
	if err, ok := f.Errors[op]; ok && err != nil {
		return err
	}
	return nil
}

func (f *FakeEC2) findInstance(id string) *ec2types.Instance {
	for i := range f.Instances {
		if aws.ToString(f.Instances[i].InstanceId) == id {
			return &f.Instances[i]
		}
	}
	return nil
}

// DescribeInstances supports InstanceIds plus the instance-state-name,
// instance-type and tag:<key> filters
func (f *FakeEC2) DescribeInstances(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.DescribeInputs = append(f.DescribeInputs, params)
	if err := f.record("DescribeInstances"); err != nil {
		return nil, err
	}

	candidates := f.Instances
	if len(params.InstanceIds) > 0 {
		candidates = nil
		for _, id := range params.InstanceIds {
			inst := f.findInstance(id)
			if inst == nil {
				return nil, APIError("InvalidInstanceID.NotFound", fmt.Sprintf("The instance ID '%s' does not exist", id))
			}
			candidates = append(candidates, *inst)
		}
	}

	var matched []ec2types.Instance
	for _, inst := range candidates {
		if matchesFilters(inst, params.Filters) {
			matched = append(matched, inst)
		}
	}

	out := &ec2.DescribeInstancesOutput{}
	if len(matched) > 0 {
		out.Reservations = []ec2types.Reservation{{Instances: matched}}
	}
	return out, nil
}

func matchesFilters(inst ec2types.Instance, filters []ec2types.Filter) bool {
	for _, filter := range filters {
		name := aws.ToString(filter.Name)
		var value string
		switch {
		case name == "instance-state-name":
			if inst.State != nil {
				value = string(inst.State.Name)
			}
		case name == "instance-type":
			value = string(inst.InstanceType)
		case strings.HasPrefix(name, "tag:"):
			key := strings.TrimPrefix(name, "tag:")
			for _, t := range inst.Tags {
				if aws.ToString(t.Key) == key {
					value = aws.ToString(t.Value)
				}
			}
		default:
			continue
		}
		if !containsValue(filter.Values, value) {
			return false
		}
	}
	return true
}

// DescribeImages supports the name filter with * wildcards and Owners
func (f *FakeEC2) DescribeImages(_ context.Context, params *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	f.ImageQueries = append(f.ImageQueries, params)
	if err := f.record("DescribeImages"); err != nil {
		return nil, err
	}

	out := &ec2.DescribeImagesOutput{}
	for _, img := range f.Images {
		if len(params.Owners) > 0 && !containsValue(params.Owners, aws.ToString(img.OwnerId)) {
			continue
		}
		ok := true
		for _, filter := range params.Filters {
			if aws.ToString(filter.Name) != "name" {
				continue
			}
			ok = false
			for _, pattern := range filter.Values {
				if wildcard(pattern).MatchString(aws.ToString(img.Name)) {
					ok = true
				}
			}
		}
		if ok {
			out.Images = append(out.Images, img)
		}
	}
	return out, nil
}

func wildcard(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	return regexp.MustCompile("^" + strings.ReplaceAll(quoted, `\*`, ".*") + "$")
}

// DescribeSecurityGroups looks groups up by GroupNames
func (f *FakeEC2) DescribeSecurityGroups(_ context.Context, params *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if err := f.record("DescribeSecurityGroups"); err != nil {
		return nil, err
	}

	out := &ec2.DescribeSecurityGroupsOutput{}
	for _, name := range params.GroupNames {
		found := false
		for _, sg := range f.SecurityGroups {
			if aws.ToString(sg.GroupName) == name {
				out.SecurityGroups = append(out.SecurityGroups, sg)
				found = true
			}
		}
		if !found {
			return nil, APIError("InvalidGroup.NotFound", fmt.Sprintf("The security group '%s' does not exist in default VPC", name))
		}
	}
	return out, nil
}

func (f *FakeEC2) CreateSecurityGroup(_ context.Context, params *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	if err := f.record("CreateSecurityGroup"); err != nil {
		return nil, err
	}

	f.nextID++
	id := fmt.Sprintf("sg-%017x", f.nextID)
	f.SecurityGroups = append(f.SecurityGroups, ec2types.SecurityGroup{
		GroupId:     aws.String(id),
		GroupName:   params.GroupName,
		Description: params.Description,
	})
	return &ec2.CreateSecurityGroupOutput{GroupId: aws.String(id)}, nil
}

func (f *FakeEC2) AuthorizeSecurityGroupIngress(_ context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	f.IngressRequests = append(f.IngressRequests, params)
	if err := f.record("AuthorizeSecurityGroupIngress"); err != nil {
		return nil, err
	}

	for i := range f.SecurityGroups {
		if aws.ToString(f.SecurityGroups[i].GroupId) == aws.ToString(params.GroupId) {
			f.SecurityGroups[i].IpPermissions = append(f.SecurityGroups[i].IpPermissions, params.IpPermissions...)
		}
	}
	return &ec2.AuthorizeSecurityGroupIngressOutput{Return: aws.Bool(true)}, nil
}

func (f *FakeEC2) DescribeKeyPairs(_ context.Context, params *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	if err := f.record("DescribeKeyPairs"); err != nil {
		return nil, err
	}

	out := &ec2.DescribeKeyPairsOutput{}
	for _, name := range params.KeyNames {
		found := false
		for _, kp := range f.KeyPairs {
			if aws.ToString(kp.KeyName) == name {
				out.KeyPairs = append(out.KeyPairs, kp)
				found = true
			}
		}
		if !found {
			return nil, APIError("InvalidKeyPair.NotFound", fmt.Sprintf("The key pair '%s' does not exist", name))
		}
	}
	return out, nil
}

func (f *FakeEC2) ImportKeyPair(_ context.Context, params *ec2.ImportKeyPairInput, _ ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error) {
	if err := f.record("ImportKeyPair"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.KeyName)
	for _, kp := range f.KeyPairs {
		if aws.ToString(kp.KeyName) == name {
			return nil, APIError("InvalidKeyPair.Duplicate", fmt.Sprintf("The keypair already exists: %s", name))
		}
	}

	if f.ImportedKeys == nil {
		f.ImportedKeys = make(map[string][]byte)
	}
	f.ImportedKeys[name] = params.PublicKeyMaterial

	fingerprint := "fp-" + name
	f.KeyPairs = append(f.KeyPairs, ec2types.KeyPairInfo{
		KeyName:        aws.String(name),
		KeyFingerprint: aws.String(fingerprint),
	})
	return &ec2.ImportKeyPairOutput{
		KeyName:        aws.String(name),
		KeyFingerprint: aws.String(fingerprint),
	}, nil
}

// RunInstances adds MaxCount instances in LaunchState
func (f *FakeEC2) RunInstances(_ context.Context, params *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.RunInputs = append(f.RunInputs, params)
	if err := f.record("RunInstances"); err != nil {
		return nil, err
	}

	count := int(aws.ToInt32(params.MaxCount))
	if count == 0 {
		count = 1
	}

	out := &ec2.RunInstancesOutput{}
	for n := 0; n < count; n++ {
		f.nextID++
		inst := ec2types.Instance{
			InstanceId:       aws.String(fmt.Sprintf("i-%017x", f.nextID)),
			ImageId:          params.ImageId,
			InstanceType:     params.InstanceType,
			KeyName:          params.KeyName,
			State:            &ec2types.InstanceState{Name: f.LaunchState},
			LaunchTime:       aws.Time(time.Now().UTC()),
			PrivateIpAddress: aws.String(fmt.Sprintf("172.31.0.%d", f.nextID)),
			PublicIpAddress:  aws.String(fmt.Sprintf("203.0.113.%d", f.nextID)),
			Placement:        &ec2types.Placement{AvailabilityZone: aws.String("us-west-2a")},
		}
		for _, spec := range params.TagSpecifications {
			inst.Tags = append(inst.Tags, spec.Tags...)
		}
		f.Instances = append(f.Instances, inst)
		out.Instances = append(out.Instances, inst)
	}
	return out, nil
}

// TerminateInstances moves instances to shutting-down
func (f *FakeEC2) TerminateInstances(_ context.Context, params *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	f.TerminateInputs = append(f.TerminateInputs, params)
	if err := f.record("TerminateInstances"); err != nil {
		return nil, err
	}

	out := &ec2.TerminateInstancesOutput{}
	for _, id := range params.InstanceIds {
		inst := f.findInstance(id)
		if inst == nil {
			return nil, APIError("InvalidInstanceID.NotFound", fmt.Sprintf("The instance ID '%s' does not exist", id))
		}
		previous := ec2types.InstanceStateNamePending
		if inst.State != nil {
			previous = inst.State.Name
		}
		inst.State = &ec2types.InstanceState{Name: ec2types.InstanceStateNameShuttingDown}
		out.TerminatingInstances = append(out.TerminatingInstances, ec2types.InstanceStateChange{
			InstanceId:    aws.String(id),
			PreviousState: &ec2types.InstanceState{Name: previous},
			CurrentState:  &ec2types.InstanceState{Name: ec2types.InstanceStateNameShuttingDown},
		})
	}
	return out, nil
}

// Image builds an image fixture owned by owner
func Image(id, name, owner, created string) ec2types.Image {
	return ec2types.Image{
		ImageId:      aws.String(id),
		Name:         aws.String(name),
		OwnerId:      aws.String(owner),
		CreationDate: aws.String(created),
		Architecture: ec2types.ArchitectureValuesX8664,
		State:        ec2types.ImageStateAvailable,
	}
}

func containsValue(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// FakeSTS returns a fixed identity
type FakeSTS struct {
	Account string
	Arn     string
	UserID  string
	Err     error
}

func (f *FakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.Account),
		Arn:     aws.String(f.Arn),
		UserId:  aws.String(f.UserID),
	}, nil
}
