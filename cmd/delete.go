package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vietdv277/awsfree/internal/freetier"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete [instance_id] [region]",
	Aliases: []string{"rm"},
	Short:   "Terminate an instance",
	Long: `Terminate an instance after confirmation. Without an instance id the
free tier instance is picked: automatically when there is one, from a list
when there are several.

Examples:
  awsfree delete i-0123456789abcdef0
  awsfree rm i-0123456789abcdef0 eu-west-1 --force
  awsfree delete`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Do not ask for confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, regionArg := splitArgs(args)

	svc, err := newService(cmd, regionArg)
	if err != nil {
		return err
	}

	return svc.Delete(cmd.Context(), freetier.DeleteRequest{
		InstanceID: id,
		Force:      deleteForce || viper.GetBool("yes"),
	})
}
