package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentboard/dashboard-service/pkg/models"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check dashboard service health",
	RunE:  runHealth,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show headline dashboard stats",
	Long: `Show the aggregated dashboard: session counters, total cost,
cost by team and the most recent sessions.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	var result models.HealthResponse
	if err := getJSON("/health", nil, &result); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(result)
	}

	fmt.Printf("%s: %s\n", result.Service, result.Status)
	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	var payload models.DashboardPayload
	if err := getJSON("/api/dashboard", nil, &payload); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(payload)
	}

	printDashboard(payload)
	return nil
}

func printDashboard(payload models.DashboardPayload) {
	stats := payload.Stats
	fmt.Println("Dashboard")
	fmt.Println("=========")
	fmt.Println()
	fmt.Printf("Sessions:      %d (%d active)\n", stats.TotalSessions, stats.ActiveSessions)
	fmt.Printf("Completed:     %d\n", stats.Completed)
	fmt.Printf("Failed:        %d\n", stats.Failed)
	fmt.Printf("Success Rate:  %.1f%%\n", stats.SuccessRate)
	fmt.Printf("Total Cost:    $%.2f\n", stats.TotalCost)

	if len(payload.CostByTeam) > 0 {
		fmt.Println("\nCost by Team:")
		printTeamCosts(payload.CostByTeam)
	}

	if len(payload.RecentSessions) > 0 {
		fmt.Println("\nRecent Sessions:")
		printSessions(payload.RecentSessions)
	}
}

func printTeamCosts(costs []models.TeamCost) {
	w := newTable()
	fmt.Fprintln(w, "TEAM\tCOST\tSESSIONS\tBUDGET\tUSED")
	for _, tc := range costs {
		used := "-"
		if tc.Budget > 0 {
			used = fmt.Sprintf("%.0f%%", tc.TotalCost/tc.Budget*100)
		}
		fmt.Fprintf(w, "%s\t$%.2f\t%d\t$%.2f\t%s\n",
			tc.Team, tc.TotalCost, tc.SessionCount, tc.Budget, used)
	}
	w.Flush()
}
