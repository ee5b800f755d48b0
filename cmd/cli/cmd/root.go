package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL    string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "dashboardctl",
	Short: "AgentBoard dashboard CLI",
	Long: `dashboardctl queries the AgentBoard dashboard service.

It reads the same views the web dashboard renders: headline stats, agent
sessions, team costs, billing, route usage and API contract changes.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getEnvOrDefault("DASHBOARD_URL", "http://localhost:8003"), "Dashboard service URL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
