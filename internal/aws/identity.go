package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/vietdv277/awsfree/pkg/types"
)

// CallerIdentity returns the identity behind the client's credentials
func (c *Client) CallerIdentity(ctx context.Context) (*types.CallerIdentity, error) {
	if c.STS == nil {
		return nil, fmt.Errorf("sts client not configured")
	}

	output, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", Classify(err))
	}

	return &types.CallerIdentity{
		Account: deref(output.Account),
		Arn:     deref(output.Arn),
		UserID:  deref(output.UserId),
	}, nil
}
