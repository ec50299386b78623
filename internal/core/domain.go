package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Collection names as they appear in the store, scoped per user.
const (
	CollectionClients      = "clients"
	CollectionSales        = "sales"
	CollectionInstallments = "installments"
	CollectionExpenses     = "expenses"
	CollectionQuotes       = "quotes"
	CollectionSettings     = "settings"
)

// Collections lists every synced collection except the settings singleton.
var Collections = []string{
	CollectionClients,
	CollectionSales,
	CollectionInstallments,
	CollectionExpenses,
	CollectionQuotes,
}

type (
	PaymentType       string
	InstallmentStatus string
	QuoteStatus       string
)

const (
	PaymentSingle       PaymentType = "single"
	PaymentInstallments PaymentType = "installments"

	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"

	QuoteSent     QuoteStatus = "Sent"
	QuoteApproved QuoteStatus = "Approved"
	QuoteRejected QuoteStatus = "Rejected"
)

type (
	// Client is a billable relationship. Balances and overdue flags are
	// derived from sales and installments, never stored on the client.
	Client struct {
		ID        string
		Name      string
		Contact   string
		Email     string
		Address   string
		Notes     string
		CreatedAt Date
	}

	// Sale is a billable transaction, split into one or more installments.
	// SourceQuoteID is set only when the sale was created by converting a
	// quote; sales predating that field are matched heuristically.
	Sale struct {
		ID                string
		ClientID          string
		Description       string
		TotalValue        decimal.Decimal
		PaymentType       PaymentType
		TotalInstallments int
		CreatedAt         Date
		SourceQuoteID     string
	}

	// Installment is one scheduled payment unit of a sale. ClientID is
	// denormalized from the sale for query efficiency. Status only ever
	// moves pending -> paid.
	Installment struct {
		ID       string
		SaleID   string
		ClientID string
		Value    decimal.Decimal
		Number   int // 1-based position in the schedule
		Total    int
		DueDate  Date
		Status   InstallmentStatus
		PaidDate Date
	}

	Expense struct {
		ID          string
		Description string
		Value       decimal.Decimal
		Date        Date
		Category    string
	}

	QuoteItem struct {
		Description string
		Quantity    decimal.Decimal
		UnitPrice   decimal.Decimal
	}

	// Quote is a proposal sent to a client. TotalValue is computed from the
	// items at save time and persisted. ConvertedToSale is sticky: once a
	// quote has been converted it never reverts.
	Quote struct {
		ID                string
		ClientID          string
		Title             string
		Date              Date
		ValidityDays      int
		Items             []QuoteItem
		TotalValue        decimal.Decimal
		Status            QuoteStatus
		ConvertedToSale   bool
		PaymentType       PaymentType
		InstallmentsCount int
		FirstDueDate      Date
		SingleDueDate     Date
	}

	// Settings is a per-user singleton document.
	Settings struct {
		ID                  string
		OnboardingCompleted bool
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyTitle       = errors.New("empty title")
	ErrMissingClient    = errors.New("missing client reference")
	ErrInvalidValue     = errors.New("invalid value")
	ErrInvalidPlan      = errors.New("invalid payment plan")
)

func (p PaymentType) Valid() bool {
	return p == PaymentSingle || p == PaymentInstallments
}

func (s QuoteStatus) Valid() bool {
	return s == QuoteSent || s == QuoteApproved || s == QuoteRejected
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (s Sale) Validate() error {
	if s.ClientID == "" {
		return ErrMissingClient
	}
	if strings.TrimSpace(s.Description) == "" {
		return ErrEmptyDescription
	}
	if s.TotalValue.Sign() <= 0 {
		return ErrInvalidValue
	}
	if !s.PaymentType.Valid() {
		return ErrInvalidPlan
	}
	if s.TotalInstallments < 1 {
		return ErrInvalidPlan
	}
	if s.PaymentType == PaymentSingle && s.TotalInstallments != 1 {
		return ErrInvalidPlan
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Value.Sign() <= 0 {
		return ErrInvalidValue
	}
	if e.Date.IsZero() {
		return errors.New("expense date cannot be zero")
	}
	return nil
}

func (q Quote) Validate() error {
	if q.ClientID == "" {
		return ErrMissingClient
	}
	if strings.TrimSpace(q.Title) == "" {
		return ErrEmptyTitle
	}
	if len(q.Items) == 0 {
		return errors.New("quote has no items")
	}
	if q.PaymentType == PaymentInstallments && q.InstallmentsCount < 1 {
		return ErrInvalidPlan
	}
	return nil
}

// ItemsTotal sums quantity x unit price over the quote items, rounded to
// cents. Persisted as TotalValue when the quote is saved.
func (q Quote) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range q.Items {
		total = total.Add(it.Quantity.Mul(it.UnitPrice))
	}
	return Round2(total)
}
