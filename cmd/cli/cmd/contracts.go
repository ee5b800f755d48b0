package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentboard/dashboard-service/internal/service/dashboard"
)

var contractsLimit int

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "View API contracts and breaking changes",
}

var contractsCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current API contract snapshot",
	RunE:  runContractsCurrent,
}

var contractsChangesCmd = &cobra.Command{
	Use:   "changes",
	Short: "List recent contract changes",
	RunE:  runContractsChanges,
}

var contractsChangeCmd = &cobra.Command{
	Use:   "change [change-id]",
	Short: "Show a contract change with its impact and remediation jobs",
	Args:  cobra.ExactArgs(1),
	RunE:  runContractsChange,
}

func init() {
	rootCmd.AddCommand(contractsCmd)
	contractsCmd.AddCommand(contractsCurrentCmd)
	contractsCmd.AddCommand(contractsChangesCmd)
	contractsCmd.AddCommand(contractsChangeCmd)

	contractsChangesCmd.Flags().IntVar(&contractsLimit, "limit", dashboard.DefaultChangesLimit, "Maximum number of changes")
}

func runContractsCurrent(cmd *cobra.Command, args []string) error {
	var snapshot map[string]any
	if err := getJSON("/api/contracts/current", nil, &snapshot); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(snapshot)
	}

	fmt.Printf("Version:   %s\n", field(snapshot, "version"))
	fmt.Printf("Captured:  %s\n", field(snapshot, "captured_at"))

	routes := rows(snapshot, "routes")
	if len(routes) == 0 {
		return nil
	}
	fmt.Println()
	w := newTable()
	fmt.Fprintln(w, "METHOD\tROUTE")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\n", field(r, "method"), field(r, "route_template"))
	}
	w.Flush()
	return nil
}

func runContractsChanges(cmd *cobra.Command, args []string) error {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(contractsLimit))

	var body any
	if err := getJSON("/api/contracts/changes", params, &body); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(body)
	}

	changes := rows(body, "changes")
	if len(changes) == 0 {
		fmt.Println("No contract changes recorded.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tSEVERITY\tAFFECTED\tREMEDIATION\tCREATED\tSUMMARY")
	for _, ch := range changes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			field(ch, "id"), field(ch, "severity"), field(ch, "affected_services"),
			field(ch, "remediation_status"), field(ch, "created_at"),
			truncateString(changeSummary(ch), 60))
	}
	w.Flush()
	return nil
}

func runContractsChange(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid change id %q: must be an integer", args[0])
	}

	var detail map[string]any
	if err := getJSON(fmt.Sprintf("/api/contracts/changes/%d", id), nil, &detail); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(detail)
	}

	change, _ := detail["change"].(map[string]any)
	if change == nil {
		change = map[string]any{}
	}
	fmt.Printf("Change:       %s\n", field(change, "id"))
	fmt.Printf("Severity:     %s\n", field(change, "severity"))
	fmt.Printf("Remediation:  %s\n", field(change, "remediation_status"))
	fmt.Printf("Summary:      %s\n", changeSummary(change))

	if impacts := rows(detail, "impact_sets"); len(impacts) > 0 {
		fmt.Println("\nImpacted Callers:")
		w := newTable()
		fmt.Fprintln(w, "CALLER\tROUTE\tCALLS (7D)")
		for _, r := range impacts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", field(r, "caller_service"), field(r, "route_template"), field(r, "calls_last_7d"))
		}
		w.Flush()
	}

	if jobs := rows(detail, "remediation_jobs"); len(jobs) > 0 {
		fmt.Println("\nRemediation Jobs:")
		w := newTable()
		fmt.Fprintln(w, "JOB\tREPO\tSTATUS\tPR")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", field(j, "job_id"), field(j, "target_repo"), field(j, "status"), field(j, "pr_url"))
		}
		w.Flush()
	}
	return nil
}

// changeSummary reads the summary out of the JSON-encoded summary_json column
func changeSummary(change map[string]any) string {
	raw, ok := change["summary_json"].(string)
	if !ok || raw == "" {
		return "-"
	}
	var summary struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &summary); err != nil || summary.Summary == "" {
		return raw
	}
	return summary.Summary
}
