package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ridgedb/ridge/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.toml (overrides $RIDGE_HOME/config.toml)")
	rootCmd.AddCommand(serveCmd)
}

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ridged database server",
	Long:  `Start the scheduler, every domain service, and both endpoints, and block until signaled.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	if serveConfigPath != "" {
		cfg, err = loadConfigFrom(serveConfigPath)
		if err != nil {
			return err
		}
	}

	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	return d.Serve(context.Background())
}
