package freetier

import (
	"context"
	"fmt"

	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/types"
)

// Status verifies the credentials and prints who they belong to
func (s *Service) Status(ctx context.Context) (*types.CallerIdentity, error) {
	out := s.out()

	fmt.Fprintln(out, "Current Status")
	fmt.Fprintln(out, ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Fprintf(out, "Region:   %s\n", ui.NameStyle.Render(s.region()))

	if s.Identity == nil {
		return nil, fmt.Errorf("no identity provider configured")
	}

	fmt.Fprint(out, "Auth:     ")
	identity, err := s.Identity.CallerIdentity(ctx)
	if err != nil {
		fmt.Fprintln(out, ui.ErrorStyle.Render("✗ Not authenticated"))
		return nil, err
	}

	fmt.Fprintln(out, ui.RunningStyle.Render("✓ Authenticated"))
	fmt.Fprintf(out, "Account:  %s\n", identity.Account)
	fmt.Fprintf(out, "User:     %s\n", identity.UserID)
	if identity.Arn != "" {
		fmt.Fprintf(out, "ARN:      %s\n", ui.MutedStyle.Render(identity.Arn))
	}

	return identity, nil
}
