package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"stillbatch/render-client/client"
	"stillbatch/render-client/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath     string
	serverURL      string
	operatorID     string
	operatorSecret string
	timeoutSeconds int
)

// serverClient is the render server client used by all commands.
// It can be overridden in tests.
var serverClient client.RenderServerClient

var rootCmd = &cobra.Command{
	Use:   "stillctl",
	Short: "Control a stillbatch render server from the command line",
	Long: `stillctl manages cameras, batch render runs and rendered stills on a
stillbatch render server. Connection settings come from a JSON config file
and can be overridden with flags.`,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("stillctl version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "stillctl.json", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "render server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&operatorID, "operator", "", "operator ID (overrides config)")
	rootCmd.PersistentFlags().StringVar(&operatorSecret, "secret", "", "operator secret (overrides config)")
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 0, "server timeout in seconds (overrides config)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getClient returns the render server client, building one from the config
// file and flag overrides when no client has been injected.
func getClient() (client.RenderServerClient, error) {
	if serverClient != nil {
		return serverClient, nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Override(config.ConfigOverrides{
		ServerURL:            &serverURL,
		OperatorID:           &operatorID,
		OperatorSecret:       &operatorSecret,
		ServerTimeoutSeconds: &timeoutSeconds,
	})

	timeout := time.Duration(cfg.ServerTimeoutSeconds) * time.Second
	return client.NewRenderServerClient(cfg.ServerURL, cfg.OperatorID, cfg.OperatorSecret, timeout), nil
}
