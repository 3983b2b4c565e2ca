package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vietdv277/awsfree/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [region]",
	Short: "Show the region and verify the AWS credentials",
	Long: `Display the region commands will use and check that the credentials
are accepted by AWS.

Examples:
  awsfree status
  awsfree status --profile dev`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var regionArg string
	if len(args) > 0 {
		regionArg = args[0]
	}

	svc, err := newService(cmd, regionArg)
	if err != nil {
		return err
	}

	if _, err := svc.Status(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if p := viper.GetString("profile"); p != "" {
		fmt.Fprintf(out, "Profile:  %s\n", p)
	} else {
		fmt.Fprintf(out, "Keys:     %s\n", ui.MutedStyle.Render(viper.GetString("credentials")))
	}
	return nil
}
