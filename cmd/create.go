package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vietdv277/awsfree/internal/freetier"
)

var createNoWait bool

var createCmd = &cobra.Command{
	Use:   "create [key_name] [region]",
	Short: "Launch the free tier instance",
	Long: `Launch an Ubuntu LTS instance of the free tier type (t3.micro unless
configured otherwise). Creation is refused while another instance of that
type exists in the region.

Without a key name the default key pair (aws_ec2_free) is used, and created
in ~/.ssh and registered with AWS if it does not exist yet.

Examples:
  awsfree create
  awsfree create mykey
  awsfree create mykey eu-west-1
  awsfree create eu-west-1 --no-wait`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().BoolVar(&createNoWait, "no-wait", false, "Return as soon as the instance is launched")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	keyName, regionArg := splitArgs(args)

	svc, err := newService(cmd, regionArg)
	if err != nil {
		return err
	}

	_, err = svc.Create(cmd.Context(), freetier.CreateRequest{
		KeyName: keyName,
		Wait:    !createNoWait,
	})
	return err
}
