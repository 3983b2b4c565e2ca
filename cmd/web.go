package cmd

import (
	"github.com/spf13/cobra"
)

var webCmd = &cobra.Command{
	Use:     "web [region]",
	Aliases: []string{"console", "dashboard", "instances"},
	Short:   "Open the EC2 console in a browser",
	Long: `Open the running instances page of the EC2 console. The URL is printed
as well, for when no browser can be started.

Examples:
  awsfree web
  awsfree console eu-west-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWeb,
}

func init() {
	rootCmd.AddCommand(webCmd)
}

func runWeb(cmd *cobra.Command, args []string) error {
	var regionArg string
	if len(args) > 0 {
		regionArg = args[0]
	}
	return newConsoleService(cmd, regionArg).Web(cmd.Context())
}
