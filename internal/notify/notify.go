// Package notify derives alerts from the pending installment list. The
// scan recomputes fully on every state change; it is cheap at the data
// volumes this tool targets.
package notify

import (
	"fmt"
	"sort"

	"atlas/internal/core"
)

type Type string

const (
	Overdue Type = "overdue"
	DueSoon Type = "due_soon"
)

// UnknownClientLabel stands in when an installment references a client
// missing from the mirror. A referential gap degrades, never errors.
const UnknownClientLabel = "a client"

type Notification struct {
	Type          Type
	InstallmentID string
	ClientName    string
	DueDate       core.Date
	Message       string
}

// Compute scans pending installments as of today: overdue when the due
// date has passed, due_soon when the due date is exactly tomorrow (not a
// range). Results sort ascending by due date.
func Compute(installments []core.Installment, clients []core.Client, today core.Date) []Notification {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	tomorrow := today.AddDays(1)

	var out []Notification
	for _, inst := range installments {
		if inst.Status != core.InstallmentPending || inst.DueDate.IsZero() {
			continue
		}
		name, ok := names[inst.ClientID]
		if !ok || name == "" {
			name = UnknownClientLabel
		}
		switch {
		case inst.DueDate.BeforeDay(today):
			out = append(out, Notification{
				Type:          Overdue,
				InstallmentID: inst.ID,
				ClientName:    name,
				DueDate:       inst.DueDate,
				Message:       fmt.Sprintf("Payment from %s was due on %s.", name, inst.DueDate),
			})
		case inst.DueDate.SameDay(tomorrow):
			out = append(out, Notification{
				Type:          DueSoon,
				InstallmentID: inst.ID,
				ClientName:    name,
				DueDate:       inst.DueDate,
				Message:       fmt.Sprintf("Payment from %s is due tomorrow.", name),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.BeforeDay(out[j].DueDate)
	})
	return out
}

// NeedsOnboarding reports whether the mirrored state looks like a brand
// new account: no clients, expenses or quotes, and onboarding not already
// completed. The caller ensures every collection has delivered its first
// snapshot before asking.
func NeedsOnboarding(clients []core.Client, expenses []core.Expense, quotes []core.Quote, settings core.Settings) bool {
	if settings.OnboardingCompleted {
		return false
	}
	return len(clients) == 0 && len(expenses) == 0 && len(quotes) == 0
}
