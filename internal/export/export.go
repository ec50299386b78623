// Package export builds tabular reports from the synced state and
// writes them through an outbound RowWriter port (CSV file, Google
// Sheets). Row building is pure; the writers do the IO.
package export

import (
	"context"
	"fmt"
	"time"

	"atlas/internal/core"
	"atlas/internal/report"
)

// RowWriter is the outbound port for tabular report sinks.
type RowWriter interface {
	WriteRows(ctx context.Context, title string, rows [][]any) error
}

// ReceivablesRows lists every pending installment in the receivables
// window with its client and ageing bucket, oldest due date first.
func ReceivablesRows(installments []core.Installment, clients []core.Client, asOf core.Date, horizonDays int) [][]any {
	byID := clientIndex(clients)
	buckets := report.ReceivablesBuckets(installments, asOf, horizonDays)

	rows := [][]any{{"Due date", "Client", "Installment", "Amount", "Bucket"}}
	appendBucket := func(name string, items []core.Installment) {
		for _, inst := range items {
			rows = append(rows, []any{
				inst.DueDate.String(),
				clientLabel(byID, inst.ClientID),
				fmt.Sprintf("%d/%d", inst.Number, inst.Total),
				inst.Value.InexactFloat64(),
				name,
			})
		}
	}
	appendBucket("overdue", buckets.Overdue)
	appendBucket("upcoming", buckets.Upcoming)
	return rows
}

// ClientRows summarizes billed, paid and outstanding totals per client,
// in mirror order.
func ClientRows(clients []core.Client, sales []core.Sale, installments []core.Installment) [][]any {
	rows := [][]any{{"Client", "Billed", "Paid", "Outstanding"}}
	for _, c := range clients {
		balance := report.ClientBalance(c.ID, sales, installments)
		rows = append(rows, []any{
			c.Name,
			balance.Billed.InexactFloat64(),
			balance.Paid.InexactFloat64(),
			balance.Outstanding.InexactFloat64(),
		})
	}
	return rows
}

// MonthlyRows is the twelve month revenue/expense series ending at the
// given month, oldest first.
func MonthlyRows(installments []core.Installment, expenses []core.Expense, year int, month time.Month) [][]any {
	rows := [][]any{{"Month", "Revenue", "Expenses"}}
	for _, m := range report.TwelveMonthSeries(installments, expenses, year, month) {
		rows = append(rows, []any{
			fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
			m.Revenue.InexactFloat64(),
			m.Expenses.InexactFloat64(),
		})
	}
	return rows
}

func clientIndex(clients []core.Client) map[string]string {
	byID := make(map[string]string, len(clients))
	for _, c := range clients {
		byID[c.ID] = c.Name
	}
	return byID
}

func clientLabel(byID map[string]string, id string) string {
	if name, ok := byID[id]; ok && name != "" {
		return name
	}
	return report.DeletedClientLabel
}
