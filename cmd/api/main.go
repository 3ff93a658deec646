package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/utilities"
)

const appName = "spotmaps"

// Set with -ldflags at build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	// best-effort: without a .env file the real environment is used
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "SpotMaps sign-in and voting service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file; environment variables override it")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

// newLogger builds the process logger from LOG_* variables.
func newLogger() (*zap.Logger, error) {
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return lg, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.Load(path)
}
