package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
	"atlas/internal/report"
)

func money(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func TestReceivablesRows(t *testing.T) {
	asOf := core.NewDate(2024, time.March, 10)
	clients := []core.Client{{ID: "c1", Name: "Acme"}}
	installments := []core.Installment{
		{ID: "i1", ClientID: "c1", Value: money(100), Number: 1, Total: 2,
			DueDate: core.NewDate(2024, time.March, 5), Status: core.InstallmentPending},
		{ID: "i2", ClientID: "ghost", Value: money(200), Number: 2, Total: 2,
			DueDate: core.NewDate(2024, time.March, 20), Status: core.InstallmentPending},
		{ID: "i3", ClientID: "c1", Value: money(999), Number: 1, Total: 1,
			DueDate: core.NewDate(2024, time.June, 1), Status: core.InstallmentPending}, // past horizon
	}

	rows := ReceivablesRows(installments, clients, asOf, 15)
	if len(rows) != 3 { // header + 2
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][1] != "Acme" || rows[1][4] != "overdue" {
		t.Fatalf("overdue row = %v", rows[1])
	}
	if rows[2][1] != report.DeletedClientLabel || rows[2][4] != "upcoming" {
		t.Fatalf("upcoming row = %v", rows[2])
	}
	if rows[2][2] != "2/2" {
		t.Fatalf("installment position = %v", rows[2][2])
	}
}

func TestClientRows(t *testing.T) {
	clients := []core.Client{{ID: "c1", Name: "Acme"}}
	sales := []core.Sale{{ID: "s1", ClientID: "c1", TotalValue: money(1000)}}
	installments := []core.Installment{
		{ClientID: "c1", Value: money(400), Status: core.InstallmentPaid,
			PaidDate: core.NewDate(2024, time.January, 5)},
	}
	rows := ClientRows(clients, sales, installments)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[1][0] != "Acme" || rows[1][1] != 1000.0 || rows[1][2] != 400.0 || rows[1][3] != 600.0 {
		t.Fatalf("client row = %v", rows[1])
	}
}

func TestMonthlyRows(t *testing.T) {
	installments := []core.Installment{
		{ClientID: "c1", Value: money(100), Status: core.InstallmentPaid,
			PaidDate: core.NewDate(2024, time.March, 5)},
	}
	rows := MonthlyRows(installments, nil, 2024, time.March)
	if len(rows) != 13 { // header + 12 months
		t.Fatalf("rows = %d, want 13", len(rows))
	}
	if rows[1][0] != "2023-04" {
		t.Fatalf("first month = %v, want 2023-04", rows[1][0])
	}
	if rows[12][0] != "2024-03" || rows[12][1] != 100.0 {
		t.Fatalf("last month = %v", rows[12])
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	err := w.WriteRows(context.Background(), "Report", [][]any{
		{"Name", "Total"},
		{"Acme, Inc", 12.5},
	})
	if err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d: %q", len(lines), out)
	}
	if lines[0] != "# Report" {
		t.Fatalf("title line = %q", lines[0])
	}
	if lines[1] != "Name,Total" {
		t.Fatalf("header line = %q", lines[1])
	}
	// Commas inside cells must be quoted.
	if lines[2] != `"Acme, Inc",12.5` {
		t.Fatalf("data line = %q", lines[2])
	}
}
