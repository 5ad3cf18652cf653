package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-noclist-client/httpclient"
	"github.com/deploymenttheory/go-noclist-client/internal/filestore"
	"github.com/deploymenttheory/go-noclist-client/orchestrator"
	"github.com/deploymenttheory/go-noclist-client/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ExitUsage is returned when the command line or configuration is unusable.
// It sits outside the 0-15 range of the combined status.
const ExitUsage = 64

// run executes the command with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	v := httpclient.NewViper()
	status := 0

	rootCmd := newRootCmd(v, stdout, &status)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return ExitUsage
	}
	return status
}

func newRootCmd(v *viper.Viper, stdout io.Writer, status *int) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           version.GetAppName(),
		Short:         "Fetch the user listing from a token-gated endpoint",
		Version:       version.GetVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("could not read config file %s: %w", cfgFile, err)
				}
			}

			config, err := httpclient.LoadConfig(v)
			if err != nil {
				return err
			}

			client, err := httpclient.BuildClient(*config, false)
			if err != nil {
				return err
			}
			defer client.Close()

			o := orchestrator.New(client, filestore.New(nil, client.Logger))
			result := o.Run(cmd.Context())

			if result.Phase == orchestrator.PhaseDone {
				if err := json.NewEncoder(stdout).Encode(result.Listing); err != nil {
					return fmt.Errorf("failed to write listing: %w", err)
				}
			}
			*status = result.ExitStatus
			return nil
		},
	}

	// -h is the host; help stays reachable through --help only.
	flags := rootCmd.Flags()
	flags.BoolP("client", "c", false, "Start client")
	flags.BoolP("debug", "d", false, "Enable debug mode")
	flags.StringP("protocol", "P", "", "Request scheme (takes precedence over --schema)")
	flags.StringP("schema", "S", "", "Request scheme")
	flags.StringP("host", "h", "", fmt.Sprintf("Remote host/domain (default %s)", httpclient.DefaultHost))
	flags.StringP("port", "p", "", fmt.Sprintf("Remote port (default %v)", httpclient.DefaultPort))
	flags.IntP("timeOut", "t", 0, "Request timeout in seconds")
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	_ = rootCmd.MarkFlagRequired("client")

	_ = v.BindPFlag(httpclient.KeyDebug, flags.Lookup("debug"))
	_ = v.BindPFlag(httpclient.KeyProtocol, flags.Lookup("protocol"))
	_ = v.BindPFlag(httpclient.KeyScheme, flags.Lookup("schema"))
	_ = v.BindPFlag(httpclient.KeyHost, flags.Lookup("host"))
	_ = v.BindPFlag(httpclient.KeyPort, flags.Lookup("port"))
	_ = v.BindPFlag(httpclient.KeyTimeout, flags.Lookup("timeOut"))

	return rootCmd
}
