package cmd

import (
	"github.com/spf13/cobra"
)

var sshCmd = &cobra.Command{
	Use:   "ssh [instance_id] [region]",
	Short: "Connect to an instance over SSH",
	Long: `Open an SSH session to a running instance using the private key in
~/.ssh named after the instance's key pair. Without an instance id the
running instance is picked, or chosen from a list.

Requires the ssh client.

Examples:
  awsfree ssh
  awsfree ssh i-0123456789abcdef0
  awsfree ssh eu-west-1`,
	Args: cobra.MaximumNArgs(2),
	RunE: runSSH,
}

func init() {
	rootCmd.AddCommand(sshCmd)
}

func runSSH(cmd *cobra.Command, args []string) error {
	id, regionArg := splitArgs(args)

	svc, err := newService(cmd, regionArg)
	if err != nil {
		return err
	}

	return svc.SSH(cmd.Context(), id)
}
