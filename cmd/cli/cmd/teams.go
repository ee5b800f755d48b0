package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "List teams and their monthly budgets",
	RunE:  runTeams,
}

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show cost by team",
	RunE:  runCosts,
}

var tokenUsageCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Show daily token usage",
	RunE:  runTokenUsage,
}

func init() {
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(costsCmd)
	rootCmd.AddCommand(tokenUsageCmd)
}

func runTeams(cmd *cobra.Command, args []string) error {
	var body any
	if err := getJSON("/api/teams", nil, &body); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(body)
	}

	teams := rows(body, "teams")
	if len(teams) == 0 {
		fmt.Println("No teams found.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tMONTHLY BUDGET")
	for _, team := range teams {
		fmt.Fprintf(w, "%s\t%s\t$%.2f\n", field(team, "id"), field(team, "name"), number(team, "monthly_budget"))
	}
	w.Flush()
	return nil
}

func runCosts(cmd *cobra.Command, args []string) error {
	var body any
	if err := getJSON("/api/analytics/cost-by-team", nil, &body); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(body)
	}

	costs := rows(body, "teams")
	if len(costs) == 0 {
		fmt.Println("No cost data found.")
		return nil
	}

	var total float64
	w := newTable()
	fmt.Fprintln(w, "TEAM\tCOST\tSESSIONS")
	for _, row := range costs {
		total += number(row, "total_cost")
		fmt.Fprintf(w, "%s\t$%.2f\t%s\n", field(row, "team_id"), number(row, "total_cost"), field(row, "sessions"))
	}
	w.Flush()
	fmt.Printf("\nTotal: $%.2f\n", total)
	return nil
}

func runTokenUsage(cmd *cobra.Command, args []string) error {
	var body any
	if err := getJSON("/api/analytics/token-usage", nil, &body); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(body)
	}

	usage := rows(body, "usage")
	if len(usage) == 0 {
		fmt.Println("No token usage recorded.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "DATE\tINPUT\tOUTPUT")
	for _, day := range usage {
		fmt.Fprintf(w, "%s\t%s\t%s\n", field(day, "date"), field(day, "input_tokens"), field(day, "output_tokens"))
	}
	w.Flush()
	return nil
}
