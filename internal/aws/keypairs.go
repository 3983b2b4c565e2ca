package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/chainguard-dev/clog"

	"github.com/vietdv277/awsfree/pkg/provider"
)

// KeyPairExists reports whether a key pair is registered under name
func (c *Client) KeyPairExists(ctx context.Context, name string) (bool, error) {
	output, err := c.EC2.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		KeyNames: []string{name},
	})
	if err != nil {
		if IsCode(err, "InvalidKeyPair.NotFound") {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe key pair %s: %w", name, Classify(err))
	}

	return len(output.KeyPairs) > 0, nil
}

// ImportKeyPair registers an OpenSSH public key and returns the fingerprint
// AWS computed for it
func (c *Client) ImportKeyPair(ctx context.Context, name string, publicKey []byte) (string, error) {
	output, err := c.EC2.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(name),
		PublicKeyMaterial: publicKey,
	})
	if err != nil {
		if IsCode(err, "InvalidKeyPair.Duplicate") {
			return "", fmt.Errorf("key pair %s: %w: %w", name, provider.ErrDuplicate, err)
		}
		return "", fmt.Errorf("failed to import key pair %s: %w", name, Classify(err))
	}

	fingerprint := deref(output.KeyFingerprint)
	clog.FromContext(ctx).Info("imported key pair", "name", name, "fingerprint", fingerprint, "region", c.region)

	return fingerprint, nil
}
