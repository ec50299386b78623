package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
)

var clients = []core.Client{{ID: "c1", Name: "Acme"}}

func pending(id, client, due string) core.Installment {
	return core.Installment{
		ID:       id,
		ClientID: client,
		Value:    decimal.NewFromInt(100),
		DueDate:  core.ParseDate(due),
		Status:   core.InstallmentPending,
	}
}

func TestCompute(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	installments := []core.Installment{
		pending("i1", "c1", "2024-03-09"), // overdue
		pending("i2", "c1", "2024-03-11"), // due tomorrow
		pending("i3", "c1", "2024-03-12"), // day after tomorrow: no alert
		pending("i4", "c1", "2024-03-10"), // due today: no alert
		{ID: "i5", ClientID: "c1", DueDate: core.ParseDate("2024-03-09"), Status: core.InstallmentPaid},
	}
	got := Compute(installments, clients, today)
	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2: %+v", len(got), got)
	}

	// Ascending by due date: overdue first here.
	if got[0].Type != Overdue || got[0].InstallmentID != "i1" {
		t.Fatalf("first = %+v, want overdue i1", got[0])
	}
	if got[1].Type != DueSoon || got[1].InstallmentID != "i2" {
		t.Fatalf("second = %+v, want due_soon i2", got[1])
	}

	if want := "Payment from Acme was due on 2024-03-09."; got[0].Message != want {
		t.Fatalf("overdue message = %q, want %q", got[0].Message, want)
	}
	if want := "Payment from Acme is due tomorrow."; got[1].Message != want {
		t.Fatalf("due_soon message = %q, want %q", got[1].Message, want)
	}
}

func TestCompute_DueSoonIsExactlyTomorrow(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	for _, due := range []string{"2024-03-12", "2024-03-13", "2024-03-20"} {
		got := Compute([]core.Installment{pending("i1", "c1", due)}, clients, today)
		if len(got) != 0 {
			t.Fatalf("due %s produced %+v, want nothing", due, got)
		}
	}
}

func TestCompute_UnknownClient(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	got := Compute([]core.Installment{pending("i1", "ghost", "2024-03-01")}, clients, today)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].ClientName != UnknownClientLabel {
		t.Fatalf("clientName = %q, want %q", got[0].ClientName, UnknownClientLabel)
	}
	if !strings.Contains(got[0].Message, UnknownClientLabel) {
		t.Fatalf("message %q should degrade to the unknown-client label", got[0].Message)
	}
}

func TestCompute_SortedAscending(t *testing.T) {
	today := core.NewDate(2024, time.March, 20)
	got := Compute([]core.Installment{
		pending("late", "c1", "2024-03-15"),
		pending("later", "c1", "2024-03-18"),
		pending("earliest", "c1", "2024-03-01"),
	}, clients, today)
	if len(got) != 3 {
		t.Fatalf("notifications = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DueDate.BeforeDay(got[i-1].DueDate) {
			t.Fatalf("not ascending at %d: %v after %v", i, got[i].DueDate, got[i-1].DueDate)
		}
	}
}

func TestNeedsOnboarding(t *testing.T) {
	tests := []struct {
		name     string
		clients  []core.Client
		expenses []core.Expense
		quotes   []core.Quote
		settings core.Settings
		want     bool
	}{
		{name: "fresh account", want: true},
		{name: "has client", clients: []core.Client{{ID: "c1"}}, want: false},
		{name: "has expense", expenses: []core.Expense{{ID: "e1"}}, want: false},
		{name: "has quote", quotes: []core.Quote{{ID: "q1"}}, want: false},
		{name: "already completed", settings: core.Settings{OnboardingCompleted: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeedsOnboarding(tt.clients, tt.expenses, tt.quotes, tt.settings)
			if got != tt.want {
				t.Fatalf("NeedsOnboarding = %v, want %v", got, tt.want)
			}
		})
	}
}
