package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentboard/dashboard-service/internal/service/dashboard"
)

var (
	usageSinceDays int
	usageRoute     string
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "View API route usage",
}

var usageTopRoutesCmd = &cobra.Command{
	Use:   "top-routes",
	Short: "Show the most called gateway routes",
	RunE:  runUsageTopRoutes,
}

var usageTopCallersCmd = &cobra.Command{
	Use:   "top-callers",
	Short: "Show the services calling the gateway the most",
	RunE:  runUsageTopCallers,
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usageTopRoutesCmd)
	usageCmd.AddCommand(usageTopCallersCmd)

	usageCmd.PersistentFlags().IntVar(&usageSinceDays, "since-days", dashboard.DefaultSinceDays, "Look-back window in days")
	usageTopCallersCmd.Flags().StringVar(&usageRoute, "route", "", "Only callers of this route template")
}

func usageParams() url.Values {
	params := url.Values{}
	params.Set("since_days", strconv.Itoa(usageSinceDays))
	if usageRoute != "" {
		params.Set("route", usageRoute)
	}
	return params
}

func runUsageTopRoutes(cmd *cobra.Command, args []string) error {
	params := url.Values{}
	params.Set("since_days", strconv.Itoa(usageSinceDays))

	var body any
	if err := getJSON("/api/usage/top-routes", params, &body); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(body)
	}

	routes := rows(body, "routes")
	if len(routes) == 0 {
		fmt.Println("No route usage recorded.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "METHOD\tROUTE\tCALLS\tCALLERS\tAVG MS")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\n",
			field(r, "method"), field(r, "route_template"), field(r, "total_calls"),
			field(r, "unique_callers"), number(r, "avg_duration_ms"))
	}
	w.Flush()
	return nil
}

func runUsageTopCallers(cmd *cobra.Command, args []string) error {
	var body any
	if err := getJSON("/api/usage/top-callers", usageParams(), &body); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(body)
	}

	callers := rows(body, "callers")
	if len(callers) == 0 {
		fmt.Println("No callers recorded.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "CALLER\tROUTE\tCALLS\tROUTES\tAVG MS")
	for _, r := range callers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\n",
			field(r, "caller_service"), field(r, "route_template"), field(r, "call_count"),
			field(r, "routes_called"), number(r, "avg_duration_ms"))
	}
	w.Flush()
	return nil
}
