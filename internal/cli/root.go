package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"s3site/internal/state"
	"s3site/internal/version"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the s3site command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           state.AppName,
		Short:         "Publish a built static site to an S3 bucket",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(SetupLogger(cmd.ErrOrStderr(), opts.verbose))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default ./s3site.toml, then the user config dir)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newUploadCommand(opts))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Detailed())
		},
	}
}

func (o *rootOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return state.ConfigPath()
}
