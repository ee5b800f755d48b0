package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/agentboard/dashboard-service/pkg/models"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and inspect agent sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agent sessions",
	RunE:  runSessionsList,
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get [session-id]",
	Short: "Show a single session as reported by the gateway",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsGet,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsGetCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	var list models.SessionList
	if err := getJSON("/api/sessions", nil, &list); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(list)
	}

	if len(list.Sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	printSessions(list.Sessions)
	fmt.Printf("\nTotal: %d sessions\n", list.Total)
	return nil
}

func runSessionsGet(cmd *cobra.Command, args []string) error {
	var session map[string]any
	if err := getJSON("/api/sessions/"+url.PathEscape(args[0]), nil, &session); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(session)
	}

	fmt.Printf("Session:   %s\n", field(session, "session_id"))
	fmt.Printf("Agent:     %s\n", field(session, "agent_name"))
	fmt.Printf("Model:     %s\n", field(session, "model"))
	fmt.Printf("Team:      %s\n", field(session, "team_id"))
	fmt.Printf("Status:    %s\n", field(session, "status"))
	fmt.Printf("Tokens:    %s in / %s out\n", field(session, "input_tokens"), field(session, "output_tokens"))
	fmt.Printf("Cost:      $%.4f\n", number(session, "total_cost"))
	if started, ok := session["started_at"].(string); ok {
		fmt.Printf("Started:   %s\n", started)
	}
	return nil
}

func printSessions(sessions []models.DashboardSession) {
	w := newTable()
	fmt.Fprintln(w, "ID\tAGENT\tMODEL\tTEAM\tSTATUS\tTOKENS\tCOST\tDURATION")
	for _, s := range sessions {
		duration := "-"
		if s.DurationMs != nil {
			duration = fmt.Sprintf("%.1fs", float64(*s.DurationMs)/1000)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t$%.4f\t%s\n",
			truncateString(s.ID, 20),
			truncateString(s.Agent, 24),
			s.Model,
			s.Team,
			s.Status,
			s.TotalTokens,
			s.Cost,
			duration)
	}
	w.Flush()
}
