package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	serverURL  string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	if envPort == "" {
		envPort = "8080"
	}
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envServer := os.Getenv("QUIZLIVE_SERVER")
	if envServer == "" {
		envServer = "ws://localhost:8080"
	}

	cmd := &cobra.Command{
		Use:   "quizlive",
		Short: "Live multiplayer quiz games over Gorilla WebSocket",
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&serverURL, "server", envServer, "ws:// URL of the game server")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewHostCmd(&serverURL))
	cmd.AddCommand(NewJoinCmd(&serverURL))
	return cmd
}
