package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"

	"github.com/vietdv277/awsfree/pkg/provider"
	"github.com/vietdv277/awsfree/pkg/types"
)

// LatestImage returns the newest available image for the first name pattern
// that matches anything
func (c *Client) LatestImage(ctx context.Context, query *provider.ImageQuery) (*types.Image, error) {
	log := clog.FromContext(ctx)

	if query == nil || len(query.NamePatterns) == 0 {
		return nil, fmt.Errorf("image query requires at least one name pattern")
	}

	arch := query.Architecture
	if arch == "" {
		arch = string(ec2types.ArchitectureValuesX8664)
	}

	for _, pattern := range query.NamePatterns {
		input := &ec2.DescribeImagesInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("name"), Values: []string{pattern}},
				{Name: aws.String("architecture"), Values: []string{arch}},
				{Name: aws.String("virtualization-type"), Values: []string{"hvm"}},
				{Name: aws.String("state"), Values: []string{"available"}},
			},
		}
		if query.Owner != "" {
			input.Owners = []string{query.Owner}
		}

		output, err := c.EC2.DescribeImages(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to describe images: %w", Classify(err))
		}

		if len(output.Images) == 0 {
			log.Debug("no images for pattern", "pattern", pattern)
			continue
		}

		img := newestImage(output.Images)
		log.Debug("resolved image", "id", img.ID, "name", img.Name, "created", img.CreationDate)
		return img, nil
	}

	return nil, fmt.Errorf("no image matching %v in %s: %w", query.NamePatterns, c.region, provider.ErrNotFound)
}

// newestImage picks the image with the latest creation date. Creation dates
// are ISO 8601 strings, so they order lexically.
func newestImage(images []ec2types.Image) *types.Image {
	sorted := make([]ec2types.Image, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		return deref(sorted[i].CreationDate) > deref(sorted[j].CreationDate)
	})

	return &types.Image{
		ID:           deref(sorted[0].ImageId),
		Name:         deref(sorted[0].Name),
		CreationDate: deref(sorted[0].CreationDate),
	}
}
