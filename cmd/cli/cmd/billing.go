package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "View billing information",
}

var billingSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the billing summary",
	RunE:  runBillingSummary,
}

var billingInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List invoices",
	RunE:  runBillingInvoices,
}

func init() {
	rootCmd.AddCommand(billingCmd)
	billingCmd.AddCommand(billingSummaryCmd)
	billingCmd.AddCommand(billingInvoicesCmd)
}

func runBillingSummary(cmd *cobra.Command, args []string) error {
	var summary map[string]any
	if err := getJSON("/api/billing/summary", nil, &summary); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(summary)
	}

	fmt.Println("Billing Summary")
	fmt.Println("===============")
	fmt.Println()
	fmt.Printf("Total Cost:    $%.2f\n", number(summary, "total_cost"))
	for _, key := range []string{"period", "currency"} {
		if _, ok := summary[key]; ok {
			fmt.Printf("%-15s%s\n", key+":", field(summary, key))
		}
	}
	return nil
}

func runBillingInvoices(cmd *cobra.Command, args []string) error {
	var body any
	if err := getJSON("/api/billing/invoices", nil, &body); err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(body)
	}

	invoices := rows(body, "invoices")
	if len(invoices) == 0 {
		fmt.Println("No invoices found.")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tPERIOD\tTOTAL\tSTATUS")
	for _, inv := range invoices {
		fmt.Fprintf(w, "%s\t%s\t$%.2f\t%s\n", field(inv, "id"), field(inv, "period"), number(inv, "total_cost"), field(inv, "status"))
	}
	w.Flush()
	return nil
}
