package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tick",
	Short: "Fixed-timestep game loop demos",
	Long: `tick runs a simulation at a fixed update rate while rendering as
fast as the display allows, throttling to a target frame rate when vsync
is off. Run it in a window or headless for a fixed number of frames.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("tick version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tick.yaml", "path to the YAML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
