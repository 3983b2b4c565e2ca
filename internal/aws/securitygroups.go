package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"

	"github.com/vietdv277/awsfree/pkg/types"
)

// EnsureSecurityGroup returns the named security group, creating it with
// inbound SSH from anywhere when it does not exist yet
func (c *Client) EnsureSecurityGroup(ctx context.Context, name string) (*types.SecurityGroup, error) {
	log := clog.FromContext(ctx)

	output, err := c.EC2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupNames: []string{name},
	})
	switch {
	case err == nil && len(output.SecurityGroups) > 0:
		sg := output.SecurityGroups[0]
		log.Debug("using existing security group", "name", name, "id", deref(sg.GroupId))
		return &types.SecurityGroup{ID: deref(sg.GroupId), Name: name}, nil
	case err != nil && !IsCode(err, "InvalidGroup.NotFound"):
		return nil, fmt.Errorf("failed to describe security group %s: %w", name, Classify(err))
	}

	log.Info("creating security group", "name", name)
	created, err := c.EC2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String("Security group for free tier EC2 instance"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create security group %s: %w", name, Classify(err))
	}
	groupID := deref(created.GroupId)

	_, err = c.EC2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId: aws.String(groupID),
		IpPermissions: []ec2types.IpPermission{
			{
				IpProtocol: aws.String("tcp"),
				FromPort:   aws.Int32(22),
				ToPort:     aws.Int32(22),
				IpRanges: []ec2types.IpRange{
					{CidrIp: aws.String("0.0.0.0/0"), Description: aws.String("SSH")},
				},
			},
		},
	})
	if err != nil && !IsCode(err, "InvalidPermission.Duplicate") {
		return nil, fmt.Errorf("failed to authorize ssh ingress on %s: %w", groupID, Classify(err))
	}

	return &types.SecurityGroup{ID: groupID, Name: name, Created: true}, nil
}
