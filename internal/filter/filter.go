// Package filter applies compound list filters with AND semantics. Every
// function takes the reference day as an argument so results stay pure
// and testable; nothing here reads the wall clock.
package filter

import (
	"sort"
	"strings"
	"time"

	"atlas/internal/core"
)

// Status filter values for installments.
type Status string

const (
	StatusAll     Status = "all"
	StatusPending Status = "pending" // due today or later
	StatusOverdue Status = "overdue" // pending and past due
	StatusPaid    Status = "paid"
)

// Range filter values, resolved relative to the supplied today.
type Range string

const (
	RangeAll        Range = "all"
	RangeThisMonth  Range = "this_month"
	RangeLastMonth  Range = "last_month"
	RangeNext30Days Range = "next_30_days"
)

// InstallmentFilter combines the optional installment filters. Zero
// values ("" or the all sentinels) mean "no restriction".
type InstallmentFilter struct {
	Status   Status
	ClientID string
	Range    Range
	Search   string
}

// QuoteFilter combines the optional quote filters. Search matches the
// quote title and the client name. A Status of "" or "all" means "no
// restriction", mirroring InstallmentFilter.
type QuoteFilter struct {
	Status   core.QuoteStatus
	ClientID string
	Range    Range
	Search   string
}

// Installments applies the filter and returns matches sorted descending
// by due date. Search terms match the referenced client's name,
// case-insensitively; installments whose client cannot be resolved are
// excluded from searched results (a referential gap, not a failure).
func Installments(installments []core.Installment, clients []core.Client, f InstallmentFilter, today core.Date) []core.Installment {
	names := clientNames(clients)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]core.Installment, 0, len(installments))
	for _, inst := range installments {
		if !matchInstallmentStatus(inst, f.Status, today) {
			continue
		}
		if !matchClient(inst.ClientID, f.ClientID) {
			continue
		}
		if !matchRange(inst.DueDate, f.Range, today) {
			continue
		}
		if search != "" {
			name, ok := names[inst.ClientID]
			if !ok || !strings.Contains(strings.ToLower(name), search) {
				continue
			}
		}
		out = append(out, inst)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[j].DueDate.BeforeDay(out[i].DueDate)
	})
	return out
}

// Quotes applies the filter and returns matches sorted descending by
// quote date.
func Quotes(quotes []core.Quote, clients []core.Client, f QuoteFilter, today core.Date) []core.Quote {
	names := clientNames(clients)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]core.Quote, 0, len(quotes))
	for _, q := range quotes {
		if f.Status != "" && f.Status != "all" && q.Status != f.Status {
			continue
		}
		if !matchClient(q.ClientID, f.ClientID) {
			continue
		}
		if !matchRange(q.Date, f.Range, today) {
			continue
		}
		if search != "" {
			title := strings.ToLower(q.Title)
			name := strings.ToLower(names[q.ClientID])
			if !strings.Contains(title, search) && !strings.Contains(name, search) {
				continue
			}
		}
		out = append(out, q)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.BeforeDay(out[i].Date)
	})
	return out
}

// ClientSortKey selects the client list ordering.
type ClientSortKey string

const (
	ClientSortName    ClientSortKey = "name"
	ClientSortCreated ClientSortKey = "createdAt"
)

// Clients filters by a case-insensitive name search and sorts by the
// given key and direction.
func Clients(clients []core.Client, search string, key ClientSortKey, desc bool) []core.Client {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]core.Client, 0, len(clients))
	for _, c := range clients {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch key {
		case ClientSortCreated:
			less = out[i].CreatedAt.Time.Before(out[j].CreatedAt.Time)
		default:
			less = strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

func clientNames(clients []core.Client) map[string]string {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names
}

func matchInstallmentStatus(inst core.Installment, s Status, today core.Date) bool {
	switch s {
	case StatusPending:
		return inst.Status == core.InstallmentPending && !inst.DueDate.BeforeDay(today)
	case StatusOverdue:
		return inst.Status == core.InstallmentPending && inst.DueDate.BeforeDay(today)
	case StatusPaid:
		return inst.Status == core.InstallmentPaid
	default:
		return true
	}
}

func matchClient(clientID, want string) bool {
	if want == "" || want == "all" {
		return true
	}
	return clientID == want
}

func matchRange(d core.Date, r Range, today core.Date) bool {
	switch r {
	case RangeThisMonth:
		return d.InMonth(today.Time.Year(), today.Time.Month())
	case RangeLastMonth:
		// Anchor on the first of the month so a day-31 today cannot
		// normalize past the intended month.
		last := time.Date(today.Time.Year(), today.Time.Month()-1, 1, 0, 0, 0, 0, time.Local)
		return d.InMonth(last.Year(), last.Month())
	case RangeNext30Days:
		return !d.BeforeDay(today) && !d.AfterDay(today.AddDays(30))
	default:
		return true
	}
}
