package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietdv277/awsfree/internal/config"
	"github.com/vietdv277/awsfree/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change the settings stored in the settings file.

Keys: region, key_name, instance_type, ssh_user, security_group, ssh_dir,
key_generator (ssh-keygen or native), wait_timeout (for example 5m).

Examples:
  awsfree config show
  awsfree config get instance_type
  awsfree config set region eu-west-1
  awsfree config set key_generator native
  awsfree config path`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the stored value of a setting",
	Long: `Print the value stored in the settings file for key. An empty line means
the setting is unset and the default applies; see 'awsfree config show'.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), settingsPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Settings %s\n", ui.MutedStyle.Render("("+settingsPath()+")"))

	values := settings.Effective()
	for i, kv := range values {
		if kv[0] == "region" {
			values[i][1] = resolveRegion("")
		}
	}
	ui.PrintKeyValues(out, values)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if err := settings.Set(key, value); err != nil {
		return err
	}

	path := settingsPath()
	if err := config.Save(path, settings); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", ui.NameStyle.Render(key), value, path)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, ok := settings.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", args[0], strings.Join(config.Keys, ", "))
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}
