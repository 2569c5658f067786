// Package report prints the stock list and reorder drafts for a terminal.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cafestock/pkg/inventory"
	"cafestock/pkg/order"
)

// Write renders one row per item followed by the per-status counts.
func Write(w io.Writer, items []inventory.Item) error {
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	t := table.NewWriter()
	t.SetStyle(style)
	t.AppendHeader(table.Row{"#", "Category", "Material", "Stock", "Threshold", "Status", "Days left", "Supplier"})
	for _, item := range items {
		eval := item.Evaluate()
		status := eval.Badge.Label
		if item.Ordered {
			status += " (ordered)"
		}
		t.AppendRow(table.Row{
			item.ID,
			item.Category,
			item.Name,
			item.Current.String() + " " + item.Unit,
			item.Threshold.String(),
			status,
			eval.DaysRemaining.String(),
			item.Supplier,
		})
	}
	sum := inventory.Summarize(items)
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("alert %d / warning %d / ok %d", sum.Alert, sum.Warning, sum.OK), "", fmt.Sprintf("%d total", sum.Total)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// WriteDrafts prints each reorder message under its supplier, followed by
// the material notes meant for the operator.
func WriteDrafts(w io.Writer, drafts []order.Draft) error {
	if len(drafts) == 0 {
		_, err := fmt.Fprintln(w, "No reorders pending.")
		return err
	}
	for i, d := range drafts {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		header := "== " + d.Supplier
		if d.Method != "" || d.Contact != "" {
			header += fmt.Sprintf(" (%s %s)", d.Method, d.Contact)
		}
		if _, err := fmt.Fprintf(w, "%s ==\n%s\n", header, d.Message); err != nil {
			return err
		}
		for _, line := range d.Lines {
			if line.Note == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "※ %s: %s\n", line.Name, line.Note); err != nil {
				return err
			}
		}
		if d.MailtoURL != "" {
			if _, err := fmt.Fprintln(w, d.MailtoURL); err != nil {
				return err
			}
		}
	}
	return nil
}
