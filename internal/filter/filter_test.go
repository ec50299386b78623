package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
)

var testClients = []core.Client{
	{ID: "c1", Name: "Acme Studio", CreatedAt: core.ParseDate("2024-01-01")},
	{ID: "c2", Name: "Globex", CreatedAt: core.ParseDate("2024-02-01")},
}

func inst(id, client, due string, status core.InstallmentStatus) core.Installment {
	return core.Installment{
		ID:       id,
		ClientID: client,
		Value:    decimal.NewFromInt(100),
		DueDate:  core.ParseDate(due),
		Status:   status,
	}
}

func TestInstallments_StatusPartition(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	installments := []core.Installment{
		inst("i1", "c1", "2024-03-09", core.InstallmentPending), // overdue
		inst("i2", "c1", "2024-03-10", core.InstallmentPending), // pending (due today)
		inst("i3", "c1", "2024-03-11", core.InstallmentPending), // pending
		inst("i4", "c1", "2024-03-01", core.InstallmentPaid),    // paid
	}

	tests := []struct {
		status Status
		want   []string
	}{
		{StatusAll, []string{"i3", "i2", "i1", "i4"}}, // desc by due date
		{StatusPending, []string{"i3", "i2"}},
		{StatusOverdue, []string{"i1"}},
		{StatusPaid, []string{"i4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := Installments(installments, testClients, InstallmentFilter{Status: tt.status}, today)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("result[%d] = %s, want %s (full: %v)", i, got[i].ID, id, ids(got))
				}
			}
		})
	}
}

// Every pending installment is either pending-from-today or overdue,
// never both: the two filters partition the non-paid rows.
func TestInstallments_PendingOverdueDisjoint(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	var installments []core.Installment
	for day := 1; day <= 28; day++ {
		installments = append(installments,
			inst(core.NewDate(2024, time.March, day).String(), "c1",
				core.NewDate(2024, time.March, day).String(), core.InstallmentPending))
	}
	pendingSet := Installments(installments, testClients, InstallmentFilter{Status: StatusPending}, today)
	overdueSet := Installments(installments, testClients, InstallmentFilter{Status: StatusOverdue}, today)
	if len(pendingSet)+len(overdueSet) != len(installments) {
		t.Fatalf("partition leak: %d + %d != %d", len(pendingSet), len(overdueSet), len(installments))
	}
	seen := map[string]bool{}
	for _, i := range pendingSet {
		seen[i.ID] = true
	}
	for _, i := range overdueSet {
		if seen[i.ID] {
			t.Fatalf("installment %s in both partitions", i.ID)
		}
	}
}

func TestInstallments_Ranges(t *testing.T) {
	today := core.NewDate(2024, time.March, 31) // day 31 exercises month arithmetic
	installments := []core.Installment{
		inst("this", "c1", "2024-03-05", core.InstallmentPending),
		inst("last", "c1", "2024-02-20", core.InstallmentPending),
		inst("next30", "c1", "2024-04-25", core.InstallmentPending),
		inst("far", "c1", "2024-06-01", core.InstallmentPending),
	}
	tests := []struct {
		rng  Range
		want []string
	}{
		{RangeThisMonth, []string{"this"}},
		{RangeLastMonth, []string{"last"}},
		{RangeNext30Days, []string{"next30"}},
		{RangeAll, []string{"far", "next30", "this", "last"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.rng), func(t *testing.T) {
			got := Installments(installments, testClients, InstallmentFilter{Range: tt.rng}, today)
			if !equalIDs(got, tt.want) {
				t.Fatalf("range %s = %v, want %v", tt.rng, ids(got), tt.want)
			}
		})
	}
}

func TestInstallments_RangeNext30IncludesToday(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	installments := []core.Installment{
		inst("today", "c1", "2024-03-10", core.InstallmentPending),
		inst("edge", "c1", "2024-04-09", core.InstallmentPending),
		inst("past-edge", "c1", "2024-04-10", core.InstallmentPending),
	}
	got := Installments(installments, testClients, InstallmentFilter{Range: RangeNext30Days}, today)
	if !equalIDs(got, []string{"edge", "today"}) {
		t.Fatalf("next_30_days = %v", ids(got))
	}
}

func TestInstallments_SearchByClientName(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	installments := []core.Installment{
		inst("i1", "c1", "2024-03-01", core.InstallmentPending),
		inst("i2", "c2", "2024-03-02", core.InstallmentPending),
		inst("i3", "ghost", "2024-03-03", core.InstallmentPending), // unresolved client
	}

	got := Installments(installments, testClients, InstallmentFilter{Search: "acme"}, today)
	if !equalIDs(got, []string{"i1"}) {
		t.Fatalf("search acme = %v", ids(got))
	}

	// An unresolved client reference can never match a search term.
	got = Installments(installments, testClients, InstallmentFilter{Search: "ghost"}, today)
	if len(got) != 0 {
		t.Fatalf("unresolved client matched search: %v", ids(got))
	}
}

func TestInstallments_ClientAndCompound(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	installments := []core.Installment{
		inst("i1", "c1", "2024-03-09", core.InstallmentPending),
		inst("i2", "c1", "2024-03-12", core.InstallmentPending),
		inst("i3", "c2", "2024-03-09", core.InstallmentPending),
	}
	got := Installments(installments, testClients,
		InstallmentFilter{Status: StatusOverdue, ClientID: "c1"}, today)
	if !equalIDs(got, []string{"i1"}) {
		t.Fatalf("compound filter = %v", ids(got))
	}
	// "all" sentinel behaves as no client restriction.
	got = Installments(installments, testClients,
		InstallmentFilter{Status: StatusOverdue, ClientID: "all"}, today)
	if len(got) != 2 {
		t.Fatalf("all-sentinel = %v", ids(got))
	}
}

func TestQuotes_FilterAndSearch(t *testing.T) {
	today := core.NewDate(2024, time.March, 10)
	quotes := []core.Quote{
		{ID: "q1", ClientID: "c1", Title: "Website redesign", Status: core.QuoteSent, Date: core.ParseDate("2024-03-01")},
		{ID: "q2", ClientID: "c2", Title: "Logo", Status: core.QuoteApproved, Date: core.ParseDate("2024-03-05")},
		{ID: "q3", ClientID: "c1", Title: "Hosting", Status: core.QuoteSent, Date: core.ParseDate("2024-02-01")},
	}

	got := Quotes(quotes, testClients, QuoteFilter{Status: core.QuoteSent}, today)
	if !equalQuoteIDs(got, []string{"q1", "q3"}) { // desc by date
		t.Fatalf("status filter = %v", quoteIDs(got))
	}

	// "all" and "" are both the no-restriction sentinel, not a status.
	got = Quotes(quotes, testClients, QuoteFilter{Status: core.QuoteStatus("all")}, today)
	if !equalQuoteIDs(got, []string{"q2", "q1", "q3"}) {
		t.Fatalf("status all = %v", quoteIDs(got))
	}
	got = Quotes(quotes, testClients, QuoteFilter{}, today)
	if !equalQuoteIDs(got, []string{"q2", "q1", "q3"}) {
		t.Fatalf("empty status = %v", quoteIDs(got))
	}

	// Search matches title or client name.
	got = Quotes(quotes, testClients, QuoteFilter{Search: "redesign"}, today)
	if !equalQuoteIDs(got, []string{"q1"}) {
		t.Fatalf("title search = %v", quoteIDs(got))
	}
	got = Quotes(quotes, testClients, QuoteFilter{Search: "globex"}, today)
	if !equalQuoteIDs(got, []string{"q2"}) {
		t.Fatalf("client search = %v", quoteIDs(got))
	}
}

func TestClients_SortAndSearch(t *testing.T) {
	got := Clients(testClients, "", ClientSortName, false)
	if got[0].ID != "c1" || got[1].ID != "c2" {
		t.Fatalf("name asc = %v", got)
	}
	got = Clients(testClients, "", ClientSortCreated, true)
	if got[0].ID != "c2" {
		t.Fatalf("createdAt desc = %v", got)
	}
	got = Clients(testClients, "glob", ClientSortName, false)
	if len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("search = %v", got)
	}
}

func ids(installments []core.Installment) []string {
	out := make([]string, len(installments))
	for i, inst := range installments {
		out[i] = inst.ID
	}
	return out
}

func equalIDs(installments []core.Installment, want []string) bool {
	if len(installments) != len(want) {
		return false
	}
	for i, id := range want {
		if installments[i].ID != id {
			return false
		}
	}
	return true
}

func quoteIDs(quotes []core.Quote) []string {
	out := make([]string, len(quotes))
	for i, q := range quotes {
		out[i] = q.ID
	}
	return out
}

func equalQuoteIDs(quotes []core.Quote, want []string) bool {
	if len(quotes) != len(want) {
		return false
	}
	for i, id := range want {
		if quotes[i].ID != id {
			return false
		}
	}
	return true
}
