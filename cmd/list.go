package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [region]",
	Aliases: []string{"ls"},
	Short:   "List instances",
	Long: `List every instance in the region that is not terminated.

Examples:
  awsfree list
  awsfree ls eu-west-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	var regionArg string
	if len(args) > 0 {
		regionArg = args[0]
	}

	svc, err := newService(cmd, regionArg)
	if err != nil {
		return err
	}

	_, err = svc.List(cmd.Context())
	return err
}
