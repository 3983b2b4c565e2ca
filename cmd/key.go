package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vietdv277/awsfree/internal/ui"
)

var keyCmd = &cobra.Command{
	Use:   "key [region]",
	Short: "Open the key pairs console page, or manage the local key pair",
	Long: `Without a subcommand, open the key pairs page of the EC2 console.

Examples:
  awsfree key
  awsfree key create
  awsfree key create mykey eu-west-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKey,
}

var keyCreateCmd = &cobra.Command{
	Use:   "create [key_name] [region]",
	Short: "Create a key pair in ~/.ssh and register it with AWS",
	Long: `Generate a key pair in the ssh directory unless its files already exist,
and import the public key as an EC2 key pair. The private key never leaves
this machine.

When AWS already has a key pair with that name you can reuse it or pick a
new name, in which case the local files are renamed to match.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runKeyCreate,
}

func init() {
	keyCmd.AddCommand(keyCreateCmd)
	rootCmd.AddCommand(keyCmd)
}

func runKey(cmd *cobra.Command, args []string) error {
	var regionArg string
	if len(args) > 0 {
		regionArg = args[0]
	}
	return newConsoleService(cmd, regionArg).KeyPairsWeb(cmd.Context())
}

func runKeyCreate(cmd *cobra.Command, args []string) error {
	name, regionArg := splitArgs(args)
	if name == "" {
		name = settings.KeyNameOrDefault()
	}

	svc, err := newService(cmd, regionArg)
	if err != nil {
		return err
	}

	kp, err := svc.Keys.Create(cmd.Context(), name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	ui.PrintKeyValues(out, [][2]string{
		{"Name", ui.NameStyle.Render(kp.Name)},
		{"Region", svc.Compute.Region()},
		{"Private key", kp.PrivateKeyPath},
		{"Public key", kp.PublicKeyPath},
		{"Fingerprint", kp.Fingerprint},
		{"Registered", strconv.FormatBool(kp.Registered)},
	})
	return nil
}
