package freetier

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/vietdv277/awsfree/internal/ui"
)

// InstancesURL returns the EC2 console page listing running instances
func InstancesURL(region string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/ec2/home?region=%s#Instances:instanceState=running", region, region)
}

// KeyPairsURL returns the EC2 console page listing key pairs
func KeyPairsURL(region string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/ec2/home?region=%s#KeyPairs:", region, region)
}

// Web opens the instances page of the EC2 console
func (s *Service) Web(ctx context.Context) error {
	return s.open(ctx, InstancesURL(s.region()))
}

// KeyPairsWeb opens the key pairs page of the EC2 console
func (s *Service) KeyPairsWeb(ctx context.Context) error {
	return s.open(ctx, KeyPairsURL(s.region()))
}

// open never fails: when no browser can be launched the URL is printed
func (s *Service) open(ctx context.Context, url string) error {
	out := s.out()

	fmt.Fprintf(out, "Opening %s\n", ui.NameStyle.Render(url))
	if s.Opener == nil {
		return nil
	}

	if err := s.Opener.Open(url); err != nil {
		clog.FromContext(ctx).Debug("failed to open browser", "error", err)
		fmt.Fprintln(out, "Could not open a browser. Open the URL above manually.")
	}
	return nil
}
