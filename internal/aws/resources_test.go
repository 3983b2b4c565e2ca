package aws

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/awsfree/internal/aws/awstest"
	"github.com/vietdv277/awsfree/pkg/provider"
)

const canonicalOwner = "099720109477"

func ubuntuQuery() *provider.ImageQuery {
	return &provider.ImageQuery{
		Owner: canonicalOwner,
		NamePatterns: []string{
			"ubuntu/images/hvm-ssd-gp3/ubuntu-noble-24.04-amd64-server-*",
			"ubuntu/images/hvm-ssd/ubuntu-noble-24.04-amd64-server-*",
			"ubuntu/images/hvm-ssd/ubuntu-jammy-22.04-amd64-server-*",
		},
	}
}

func TestLatestImagePicksNewest(t *testing.T) {
	c, fake := newTestClient()
	fake.Images = []ec2types.Image{
		awstest.Image("ami-old", "ubuntu/images/hvm-ssd-gp3/ubuntu-noble-24.04-amd64-server-20240423", canonicalOwner, "2024-04-23T10:00:00.000Z"),
		awstest.Image("ami-new", "ubuntu/images/hvm-ssd-gp3/ubuntu-noble-24.04-amd64-server-20240801", canonicalOwner, "2024-08-01T10:00:00.000Z"),
		awstest.Image("ami-fake", "ubuntu/images/hvm-ssd-gp3/ubuntu-noble-24.04-amd64-server-20250101", "111111111111", "2025-01-01T10:00:00.000Z"),
	}

	img, err := c.LatestImage(context.Background(), ubuntuQuery())
	require.NoError(t, err)
	assert.Equal(t, "ami-new", img.ID)
	assert.Len(t, fake.ImageQueries, 1)
}

func TestLatestImageFallsBackToJammy(t *testing.T) {
	c, fake := newTestClient()
	fake.Images = []ec2types.Image{
		awstest.Image("ami-jammy", "ubuntu/images/hvm-ssd/ubuntu-jammy-22.04-amd64-server-20240301", canonicalOwner, "2024-03-01T10:00:00.000Z"),
	}

	img, err := c.LatestImage(context.Background(), ubuntuQuery())
	require.NoError(t, err)
	assert.Equal(t, "ami-jammy", img.ID)
	assert.Len(t, fake.ImageQueries, 3)
}

func TestLatestImageNoMatch(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.LatestImage(context.Background(), ubuntuQuery())
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestEnsureSecurityGroup(t *testing.T) {
	c, fake := newTestClient()
	ctx := context.Background()

	sg, err := c.EnsureSecurityGroup(ctx, "ec2-free-tier-sg")
	require.NoError(t, err)
	assert.True(t, sg.Created)
	assert.NotEmpty(t, sg.ID)

	require.Len(t, fake.IngressRequests, 1)
	perm := fake.IngressRequests[0].IpPermissions[0]
	assert.Equal(t, "tcp", awssdk.ToString(perm.IpProtocol))
	assert.Equal(t, int32(22), awssdk.ToInt32(perm.FromPort))
	assert.Equal(t, "0.0.0.0/0", awssdk.ToString(perm.IpRanges[0].CidrIp))

	// Second call reuses the group
	again, err := c.EnsureSecurityGroup(ctx, "ec2-free-tier-sg")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, sg.ID, again.ID)
	assert.Equal(t, 1, fake.Calls["CreateSecurityGroup"])
}

func TestEnsureSecurityGroupDescribeFailure(t *testing.T) {
	c, fake := newTestClient()
	fake.Errors["DescribeSecurityGroups"] = awstest.APIError("UnauthorizedOperation", "You are not authorized to perform this operation.")

	_, err := c.EnsureSecurityGroup(context.Background(), "ec2-free-tier-sg")
	assert.ErrorIs(t, err, provider.ErrPermissionDenied)
	assert.Zero(t, fake.Calls["CreateSecurityGroup"])
}

func TestKeyPairs(t *testing.T) {
	c, fake := newTestClient()
	ctx := context.Background()

	exists, err := c.KeyPairExists(ctx, "aws_ec2_free")
	require.NoError(t, err)
	assert.False(t, exists)

	fp, err := c.ImportKeyPair(ctx, "aws_ec2_free", []byte("ssh-ed25519 AAAA test"))
	require.NoError(t, err)
	assert.Equal(t, "fp-aws_ec2_free", fp)
	assert.Equal(t, []byte("ssh-ed25519 AAAA test"), fake.ImportedKeys["aws_ec2_free"])

	exists, err = c.KeyPairExists(ctx, "aws_ec2_free")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = c.ImportKeyPair(ctx, "aws_ec2_free", []byte("ssh-ed25519 AAAA test"))
	assert.ErrorIs(t, err, provider.ErrDuplicate)
	assert.True(t, IsCode(err, "InvalidKeyPair.Duplicate"))
}
