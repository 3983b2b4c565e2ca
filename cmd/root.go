package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vietdv277/awsfree/internal/aws"
	"github.com/vietdv277/awsfree/internal/config"
	"github.com/vietdv277/awsfree/internal/freetier"
	"github.com/vietdv277/awsfree/internal/keys"
	"github.com/vietdv277/awsfree/internal/logging"
	"github.com/vietdv277/awsfree/internal/prompt"
	"github.com/vietdv277/awsfree/internal/runner"
	"github.com/vietdv277/awsfree/internal/ui"
)

var (
	// Global flags
	profile    string
	region     string
	assumeYes  bool
	debug      bool
	configFile string

	// settings is loaded once per invocation by the persistent pre-run
	settings = &config.Settings{}
)

var rootCmd = &cobra.Command{
	Use:   "awsfree",
	Short: "awsfree - manage a single AWS EC2 free tier instance",
	Long: `awsfree creates, lists, deletes and connects to one free tier eligible
EC2 instance, and manages the SSH key pair used to reach it.

Credentials are read from ~/.env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY),
or from a shared AWS profile with --profile.

Examples:
  awsfree create                  # Launch an Ubuntu t3.micro in us-west-2
  awsfree create mykey eu-west-1  # Launch with key pair "mykey" in eu-west-1
  awsfree list                    # List instances in the default region
  awsfree ssh                     # Connect to the running instance
  awsfree delete i-0abc123        # Terminate an instance
  awsfree web                     # Open the EC2 console
  awsfree key create              # Create and register the default key pair`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "AWS profile to use instead of the ~/.env credentials")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "AWS region to use")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Settings file (default "+config.GetConfigPath()+")")

	// Bind flags to viper
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("yes", rootCmd.PersistentFlags().Lookup("yes"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Read from environment variables: AWSFREE_REGION, AWSFREE_PROFILE, ...
	viper.SetEnvPrefix("AWSFREE")
	viper.AutomaticEnv()

	viper.SetDefault("credentials", config.DefaultCredentialsPath())
}

// setup installs the logger and loads the settings file before any command runs
func setup(cmd *cobra.Command, _ []string) error {
	l := logging.Setup(os.Stderr, viper.GetBool("debug"))
	cmd.SetContext(logging.WithContext(cmd.Context(), l))

	s, err := config.Load(settingsPath())
	if err != nil {
		return err
	}
	settings = s

	l.Debug("settings loaded", "path", settingsPath())
	return nil
}

func settingsPath() string {
	if p := viper.GetString("config"); p != "" {
		return config.ExpandHome(p)
	}
	return config.GetConfigPath()
}

// Priority for region: positional argument > --region flag > AWSFREE_REGION
// env > settings file > AWS_REGION env > AWS_DEFAULT_REGION env > us-west-2
func resolveRegion(arg string) string {
	return config.ResolveRegion(
		arg,
		viper.GetString("region"),
		settings.Region,
		os.Getenv("AWS_REGION"),
		os.Getenv("AWS_DEFAULT_REGION"),
	)
}

var regionPattern = regexp.MustCompile(`^[a-z]{2}(-gov|-iso[a-z]*)?-[a-z]+-\d+$`)

// looksLikeRegion lets "awsfree ssh eu-west-1" mean a region rather than an id
func looksLikeRegion(s string) bool {
	return regionPattern.MatchString(s)
}

// splitArgs separates an optional leading name or id from an optional
// trailing region. A lone argument that looks like a region is a region.
func splitArgs(args []string) (string, string) {
	switch len(args) {
	case 0:
		return "", ""
	case 1:
		if looksLikeRegion(args[0]) {
			return "", args[0]
		}
		return args[0], ""
	}
	return args[0], args[1]
}

func newPrompter(cmd *cobra.Command) prompt.Prompter {
	if viper.GetBool("yes") {
		return prompt.NewAuto(cmd.OutOrStdout())
	}
	return prompt.NewInteractive(cmd.InOrStdin(), cmd.OutOrStdout())
}

// newClient builds the AWS client for region from the ~/.env credentials, or
// from the shared config chain when a profile is given
func newClient(ctx context.Context, region string) (*aws.Client, error) {
	opts := []aws.ClientOption{aws.WithRegion(region)}

	if p := viper.GetString("profile"); p != "" {
		opts = append(opts, aws.WithProfile(p))
	} else {
		creds, err := config.LoadCredentials(config.ExpandHome(viper.GetString("credentials")))
		if err != nil {
			return nil, err
		}
		logging.L.Debug("using static credentials", "source", creds.Source)
		opts = append(opts, aws.WithStaticCredentials(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken))
	}

	return aws.NewClient(ctx, opts...)
}

// newService wires a freetier.Service for the region picked from regionArg
func newService(cmd *cobra.Command, regionArg string) (*freetier.Service, error) {
	client, err := newClient(cmd.Context(), resolveRegion(regionArg))
	if err != nil {
		return nil, err
	}

	r := runner.New()
	p := newPrompter(cmd)
	out := cmd.OutOrStdout()

	return &freetier.Service{
		Compute:  client,
		Identity: client,
		Keys:     newKeyManager(client, r, p, out),
		Runner:   r,
		Prompter: p,
		Opener:   freetier.BrowserOpener{},
		Out:      out,
		Options: freetier.Options{
			InstanceType:   settings.InstanceTypeOrDefault(),
			SecurityGroup:  settings.SecurityGroupOrDefault(),
			SSHUser:        settings.SSHUserOrDefault(),
			DefaultKeyName: settings.KeyNameOrDefault(),
			WaitTimeout:    settings.Wait(),
		},
	}, nil
}

// newConsoleService is a service that only opens console pages and needs no
// credentials
func newConsoleService(cmd *cobra.Command, regionArg string) *freetier.Service {
	return &freetier.Service{
		Compute: aws.New(nil, nil, resolveRegion(regionArg)),
		Opener:  freetier.BrowserOpener{},
		Out:     cmd.OutOrStdout(),
	}
}

func newKeyManager(client *aws.Client, r runner.Runner, p prompt.Prompter, out io.Writer) *keys.Manager {
	m := &keys.Manager{
		Dir:      settings.SSHDirOrDefault(),
		Registry: client,
		Prompter: p,
		Out:      out,
	}

	if settings.KeyGeneratorOrDefault() == config.KeyGeneratorNative {
		m.Generator = keys.Native{}
	} else {
		m.Generator = &keys.SSHKeygen{Runner: r}
		m.Fallback = keys.Native{}
	}
	return m
}

// printError reports err once, followed by whatever the error knows about
// fixing it
func printError(w io.Writer, err error) {
	if errors.Is(err, ui.ErrSelectionCancelled) {
		fmt.Fprintln(w, "Cancelled")
		return
	}

	fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle.Render("Error:"), err)

	// cobra reports unknown verbs with a plain error
	if strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(w)
		fmt.Fprint(w, rootCmd.UsageString())
		return
	}

	var credsErr *config.CredentialsError
	var limitErr *freetier.FreeTierLimitError
	var missingErr *runner.MissingDependencyError

	switch {
	case errors.As(err, &credsErr):
		fmt.Fprintln(w)
		fmt.Fprintln(w, credsErr.Instructions())
	case errors.As(err, &limitErr):
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Only one free tier instance is managed at a time. Delete it first with:")
		for _, c := range limitErr.DeleteCommands() {
			fmt.Fprintf(w, "  %s\n", c)
		}
	case errors.As(err, &missingErr):
		if missingErr.Hint != "" {
			fmt.Fprintln(w, ui.HintStyle.Render(missingErr.Hint))
		}
	default:
		if hint := aws.Hint(err); hint != "" {
			fmt.Fprintln(w, ui.HintStyle.Render(hint))
		}
	}
}
