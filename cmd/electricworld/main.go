// Electric World server - real-time multiplayer power grid.
//
// This is the main entry point. The server holds the shared grid of
// player-placed devices in memory and keeps every connected client in sync
// over WebSocket. Optional side channels journal events to SQLite, relay
// them to an MQTT broker and write telemetry to InfluxDB.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/electricworld/electricworld-core/internal/infrastructure/config"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configEnvVar names the environment variable that overrides the default
// configuration path.
const configEnvVar = "ELECTRICWORLD_CONFIG"

func main() {
	// Cancel on Ctrl+C and SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called explicitly above
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "electricworld",
		Short: "Electric World multiplayer game server",
		Long: `Electric World keeps a shared power grid in sync between players.

Players connect over WebSocket, place and wire devices, and every change
is broadcast to everyone connected. Running without a subcommand starts
the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, cmd.Flags().Changed("config"))
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigFlag(),
		"path to the YAML configuration file (env "+configEnvVar+")")

	root.AddCommand(
		serveCmd(opts),
		configCmd(opts),
		journalCmd(opts),
		versionCmd(),
	)
	return root
}

// defaultConfigFlag returns the config path from the environment, or the
// built-in default.
func defaultConfigFlag() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig reads the configuration. A missing file is only tolerated at
// the built-in default path; a path the operator named must exist.
func loadConfig(opts *rootOptions, explicit bool) (*config.Config, error) {
	if explicit || os.Getenv(configEnvVar) != "" || opts.configPath != defaultConfigPath {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
