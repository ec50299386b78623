// Package report computes derived financial metrics from a state
// snapshot. Every function is pure and recomputes from scratch; at the
// low thousands of rows this tool targets, correctness beats incremental
// bookkeeping. Unresolved cross-references degrade (sentinel labels,
// "unknown" attribution) and never fail a computation.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
)

const (
	// DefaultHorizonDays bounds the "upcoming" receivables bucket.
	DefaultHorizonDays = 15
	// DefaultTopClients is the dashboard's top-clients chart size.
	DefaultTopClients = 5
	// DeletedClientLabel stands in for a client id with no mirrored client.
	DeletedClientLabel = "Deleted client"
	// UncategorizedLabel is the fold-in bucket for blank expense categories.
	UncategorizedLabel = "Uncategorized"
)

// MonthlyRevenue sums paid installments whose paid date falls in the
// given month.
func MonthlyRevenue(installments []core.Installment, year int, month time.Month) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		if inst.Status != core.InstallmentPaid {
			continue
		}
		if inst.PaidDate.InMonth(year, month) {
			total = total.Add(inst.Value)
		}
	}
	return total
}

// MonthlyExpenses sums expenses dated in the given month.
func MonthlyExpenses(expenses []core.Expense, year int, month time.Month) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.Date.InMonth(year, month) {
			total = total.Add(e.Value)
		}
	}
	return total
}

// Balance is a client's derived financial position. Outstanding may be
// negative: an overpaid client is a valid state, not an error.
type Balance struct {
	Billed      decimal.Decimal
	Paid        decimal.Decimal
	Outstanding decimal.Decimal
}

// ClientBalance derives billed (sum of sale totals), paid (sum of paid
// installments) and outstanding (billed minus paid) for one client.
func ClientBalance(clientID string, sales []core.Sale, installments []core.Installment) Balance {
	billed := decimal.Zero
	for _, s := range sales {
		if s.ClientID == clientID {
			billed = billed.Add(s.TotalValue)
		}
	}
	paid := decimal.Zero
	for _, inst := range installments {
		if inst.ClientID == clientID && inst.Status == core.InstallmentPaid {
			paid = paid.Add(inst.Value)
		}
	}
	return Balance{Billed: billed, Paid: paid, Outstanding: billed.Sub(paid)}
}

// HasOverdue reports whether the client has any pending installment due
// strictly before asOf (day granularity).
func HasOverdue(clientID string, installments []core.Installment, asOf core.Date) bool {
	for _, inst := range installments {
		if inst.ClientID != clientID || inst.Status != core.InstallmentPending {
			continue
		}
		if !inst.DueDate.IsZero() && inst.DueDate.BeforeDay(asOf) {
			return true
		}
	}
	return false
}

// Buckets partitions pending installments for the receivables panel.
// The partitions are disjoint; installments past the horizon appear in
// neither.
type Buckets struct {
	Overdue  []core.Installment
	Upcoming []core.Installment
}

// ReceivablesBuckets splits pending installments into overdue (due before
// asOf) and upcoming (due within horizonDays of asOf, inclusive), each
// sorted ascending by due date. horizonDays <= 0 selects the default.
func ReceivablesBuckets(installments []core.Installment, asOf core.Date, horizonDays int) Buckets {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	limit := asOf.AddDays(horizonDays)

	var b Buckets
	for _, inst := range installments {
		if inst.Status != core.InstallmentPending || inst.DueDate.IsZero() {
			continue
		}
		switch {
		case inst.DueDate.BeforeDay(asOf):
			b.Overdue = append(b.Overdue, inst)
		case !inst.DueDate.AfterDay(limit):
			b.Upcoming = append(b.Upcoming, inst)
		}
	}
	byDueDate := func(list []core.Installment) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].DueDate.BeforeDay(list[j].DueDate)
		})
	}
	byDueDate(b.Overdue)
	byDueDate(b.Upcoming)
	return b
}

// ClientRevenue is one entry of the top-clients ranking.
type ClientRevenue struct {
	ClientName string
	Total      decimal.Decimal
}

// TopClientsByRevenue ranks clients by paid installment value in the
// given year, descending, top n (default 5). A client id with no mirrored
// client renders under the deleted-client sentinel.
func TopClientsByRevenue(installments []core.Installment, clients []core.Client, year, n int) []ClientRevenue {
	if n <= 0 {
		n = DefaultTopClients
	}
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, inst := range installments {
		if inst.Status != core.InstallmentPaid || inst.PaidDate.Year() != year || inst.PaidDate.IsZero() {
			continue
		}
		if _, ok := totals[inst.ClientID]; !ok {
			order = append(order, inst.ClientID)
		}
		totals[inst.ClientID] = totals[inst.ClientID].Add(inst.Value)
	}

	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	out := make([]ClientRevenue, 0, len(order))
	for _, id := range order {
		name, ok := names[id]
		if !ok || name == "" {
			name = DeletedClientLabel
		}
		out = append(out, ClientRevenue{ClientName: name, Total: totals[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryTotal is one slice of the expenses-by-category breakdown.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// ExpensesByCategory groups the month's expenses by category, folding
// blank categories into the uncategorized bucket. Sorted descending by
// total for stable display.
func ExpensesByCategory(expenses []core.Expense, year int, month time.Month) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, e := range expenses {
		if !e.Date.InMonth(year, month) {
			continue
		}
		cat := e.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		if _, ok := totals[cat]; !ok {
			order = append(order, cat)
		}
		totals[cat] = totals[cat].Add(e.Value)
	}
	out := make([]CategoryTotal, 0, len(order))
	for _, cat := range order {
		out = append(out, CategoryTotal{Category: cat, Total: totals[cat]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// Funnel compares total quoted value against the approved share for one
// year.
type Funnel struct {
	Quoted   decimal.Decimal
	Approved decimal.Decimal
}

// SalesFunnel sums quote totals for quotes dated in the year; the
// approved figure counts only quotes with status Approved.
func SalesFunnel(quotes []core.Quote, year int) Funnel {
	f := Funnel{Quoted: decimal.Zero, Approved: decimal.Zero}
	for _, q := range quotes {
		if q.Date.IsZero() || q.Date.Year() != year {
			continue
		}
		f.Quoted = f.Quoted.Add(q.TotalValue)
		if q.Status == core.QuoteApproved {
			f.Approved = f.Approved.Add(q.TotalValue)
		}
	}
	return f
}

// MonthTotals is one bucket of the twelve-month trend series.
type MonthTotals struct {
	Year     int
	Month    time.Month
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// TwelveMonthSeries produces twelve consecutive month buckets ending at
// the given month (inclusive), oldest first. time.Date normalization
// handles the year rollover.
func TwelveMonthSeries(installments []core.Installment, expenses []core.Expense, year int, month time.Month) []MonthTotals {
	out := make([]MonthTotals, 0, 12)
	for i := 11; i >= 0; i-- {
		t := time.Date(year, month-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		y, m := t.Year(), t.Month()
		out = append(out, MonthTotals{
			Year:     y,
			Month:    m,
			Revenue:  MonthlyRevenue(installments, y, m),
			Expenses: MonthlyExpenses(expenses, y, m),
		})
	}
	return out
}

// OpenQuotesTotal sums the value of quotes still awaiting an answer.
func OpenQuotesTotal(quotes []core.Quote) decimal.Decimal {
	total := decimal.Zero
	for _, q := range quotes {
		if q.Status == core.QuoteSent {
			total = total.Add(q.TotalValue)
		}
	}
	return total
}

// KPIs is the dashboard header: the month's revenue, expenses and
// balance, plus the open-quote pipeline.
type KPIs struct {
	Revenue    decimal.Decimal
	Expenses   decimal.Decimal
	Balance    decimal.Decimal
	OpenQuotes decimal.Decimal
}

// MonthKPIs derives the dashboard header figures for one month.
func MonthKPIs(installments []core.Installment, expenses []core.Expense, quotes []core.Quote, year int, month time.Month) KPIs {
	revenue := MonthlyRevenue(installments, year, month)
	spent := MonthlyExpenses(expenses, year, month)
	return KPIs{
		Revenue:    revenue,
		Expenses:   spent,
		Balance:    revenue.Sub(spent),
		OpenQuotes: OpenQuotesTotal(quotes),
	}
}

// Categories returns the distinct non-blank expense categories, sorted,
// for autocomplete.
func Categories(expenses []core.Expense) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range expenses {
		if e.Category == "" {
			continue
		}
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}
