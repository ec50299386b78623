package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"atlas/internal/core"
	"atlas/internal/export"
	"atlas/internal/filter"
	"atlas/internal/log"
	"atlas/internal/notify"
	"atlas/internal/report"
	"atlas/internal/store"
	"atlas/internal/workflow"
)

// handleDashboard serves the aggregated dashboard for one month
// (default: the current one). The payload is cached per state revision
// so polling clients between pushes hit one computation.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	today := core.Today()
	year, month := yearMonthParams(r, today)

	key := fmt.Sprintf("%d:%04d-%02d", state.Revision, year, int(month))
	if view, ok := s.dashboards.Get(key); ok {
		s.writeJSON(w, http.StatusOK, view)
		return
	}

	kpis := report.MonthKPIs(state.Installments, state.Expenses, state.Quotes, year, month)
	view := dashboardView{
		Year:       year,
		Month:      int(month),
		Revenue:    kpis.Revenue.InexactFloat64(),
		Expenses:   kpis.Expenses.InexactFloat64(),
		Balance:    kpis.Balance.InexactFloat64(),
		OpenQuotes: kpis.OpenQuotes.InexactFloat64(),
		Notifications: notificationViews(
			notify.Compute(state.Installments, state.Clients, today)),
		NeedsOnboarding: s.sync.Loaded() &&
			notify.NeedsOnboarding(state.Clients, state.Expenses, state.Quotes, state.Settings),
	}
	for _, c := range report.TopClientsByRevenue(state.Installments, state.Clients, year, report.DefaultTopClients) {
		view.TopClients = append(view.TopClients, clientRevenueView{
			Name: c.ClientName, Total: c.Total.InexactFloat64(),
		})
	}
	for _, cat := range report.ExpensesByCategory(state.Expenses, year, month) {
		view.ByCategory = append(view.ByCategory, categoryTotalView{
			Category: cat.Category, Total: cat.Total.InexactFloat64(),
		})
	}
	funnel := report.SalesFunnel(state.Quotes, year)
	view.Funnel = funnelView{
		Quoted:   funnel.Quoted.InexactFloat64(),
		Approved: funnel.Approved.InexactFloat64(),
	}
	for _, m := range report.TwelveMonthSeries(state.Installments, state.Expenses, year, month) {
		view.MonthlySeries = append(view.MonthlySeries, monthTotalsView{
			Year:     m.Year,
			Month:    int(m.Month),
			Revenue:  m.Revenue.InexactFloat64(),
			Expenses: m.Expenses.InexactFloat64(),
		})
	}

	s.dashboards.Set(key, view)
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReceivables(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	buckets := report.ReceivablesBuckets(state.Installments, core.Today(), s.horizonDays)
	s.writeJSON(w, http.StatusOK, receivablesView{
		Overdue:  newBucketView(buckets.Overdue, state.Clients),
		Upcoming: newBucketView(buckets.Upcoming, state.Clients),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	state := s.sync.Snapshot()
	notifications := notify.Compute(state.Installments, state.Clients, core.Today())
	s.writeJSON(w, http.StatusOK, notificationViews(notifications))
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	q := r.URL.Query()
	f := filter.InstallmentFilter{
		Status:   filter.Status(q.Get("status")),
		ClientID: q.Get("clientId"),
		Range:    filter.Range(q.Get("range")),
		Search:   q.Get("q"),
	}
	matched := filter.Installments(state.Installments, state.Clients, f, core.Today())
	s.writeJSON(w, http.StatusOK, installmentViews(matched, state.Clients))
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	q := r.URL.Query()
	f := filter.QuoteFilter{
		Status:   core.QuoteStatus(q.Get("status")),
		ClientID: q.Get("clientId"),
		Range:    filter.Range(q.Get("range")),
		Search:   q.Get("q"),
	}
	matched := filter.Quotes(state.Quotes, state.Clients, f, core.Today())
	s.writeJSON(w, http.StatusOK, quoteViews(matched, state.Clients, state.Sales))
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	q := r.URL.Query()
	key := filter.ClientSortKey(q.Get("sort"))
	matched := filter.Clients(state.Clients, q.Get("q"), key, q.Get("dir") == "desc")
	s.writeJSON(w, http.StatusOK, clientViews(state, matched, core.Today()))
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	state := s.sync.Snapshot()
	s.writeJSON(w, http.StatusOK, report.Categories(state.Expenses))
}

type clientInput struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in clientInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	id, err := s.workflow.AddClient(r.Context(), core.Client{
		Name:    in.Name,
		Contact: in.Contact,
		Email:   in.Email,
		Address: in.Address,
		Notes:   in.Notes,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var in clientInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if err := (core.Client{Name: in.Name}).Validate(); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	err := s.workflow.UpdateClient(r.Context(), r.PathValue("id"), map[string]any{
		"name":    in.Name,
		"contact": in.Contact,
		"email":   in.Email,
		"address": in.Address,
		"notes":   in.Notes,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type idsInput struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleDeleteClients(w http.ResponseWriter, r *http.Request) {
	var in idsInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	state := s.sync.Snapshot()
	if err := s.workflow.DeleteClients(r.Context(), in.IDs, state.Sales, state.Installments); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type expenseInput struct {
	Description string      `json:"description"`
	Value       json.Number `json:"value"`
	Date        string      `json:"date"`
	Category    string      `json:"category"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	value, err := core.ParseMoney(in.Value.String())
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	date := core.ParseDate(in.Date)
	if date.IsZero() {
		date = core.Today()
	}
	id, err := s.workflow.AddExpense(r.Context(), core.Expense{
		Description: in.Description,
		Value:       value,
		Date:        date,
		Category:    in.Category,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteExpenses(w http.ResponseWriter, r *http.Request) {
	var in idsInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if err := s.workflow.DeleteExpenses(r.Context(), in.IDs); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quoteItemInput struct {
	Description string      `json:"description"`
	Quantity    json.Number `json:"quantity"`
	UnitPrice   json.Number `json:"unitPrice"`
}

type quoteInput struct {
	ID                string           `json:"id"`
	ClientID          string           `json:"clientId"`
	Title             string           `json:"title"`
	Date              string           `json:"date"`
	ValidityDays      int              `json:"validityDays"`
	Items             []quoteItemInput `json:"items"`
	PaymentType       string           `json:"paymentType"`
	InstallmentsCount int              `json:"installmentsCount"`
	FirstDueDate      string           `json:"firstDueDate"`
	SingleDueDate     string           `json:"singleDueDate"`
}

func (s *Server) handleSaveQuote(w http.ResponseWriter, r *http.Request) {
	var in quoteInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	q := core.Quote{
		ID:                in.ID,
		ClientID:          in.ClientID,
		Title:             in.Title,
		Date:              core.ParseDate(in.Date),
		ValidityDays:      in.ValidityDays,
		PaymentType:       core.PaymentType(in.PaymentType),
		InstallmentsCount: in.InstallmentsCount,
		FirstDueDate:      core.ParseDate(in.FirstDueDate),
		SingleDueDate:     core.ParseDate(in.SingleDueDate),
	}
	if q.Date.IsZero() {
		q.Date = core.Today()
	}
	if q.PaymentType == "" {
		q.PaymentType = core.PaymentSingle
	}
	for _, it := range in.Items {
		quantity, err := decimal.NewFromString(it.Quantity.String())
		if err != nil || quantity.Sign() <= 0 {
			s.writeWorkflowError(w, fmt.Errorf("item %q: %w", it.Description, core.ErrInvalidValue))
			return
		}
		unitPrice, err := core.ParseMoney(it.UnitPrice.String())
		if err != nil {
			s.writeWorkflowError(w, fmt.Errorf("item %q: %w", it.Description, err))
			return
		}
		q.Items = append(q.Items, core.QuoteItem{
			Description: it.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
		})
	}
	saved, err := s.workflow.SaveQuote(r.Context(), q)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	state := s.sync.Snapshot()
	s.writeJSON(w, http.StatusOK, quoteViews([]core.Quote{saved}, state.Clients, state.Sales)[0])
}

func (s *Server) handleConvertQuote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q, ok := s.findQuote(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("quote %s not found", id))
		return
	}
	sale, err := s.workflow.ConvertQuote(r.Context(), q)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"saleId": sale.ID})
}

type statusInput struct {
	Status string `json:"status"`
}

func (s *Server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	id := r.PathValue("id")
	if _, ok := s.findQuote(id); !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("quote %s not found", id))
		return
	}
	if err := s.workflow.SetQuoteStatus(r.Context(), id, core.QuoteStatus(in.Status)); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := s.workflow.DeleteQuote(r.Context(), r.PathValue("id")); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type saleInput struct {
	ClientID     string      `json:"clientId"`
	Description  string      `json:"description"`
	TotalValue   json.Number `json:"totalValue"`
	PaymentType  string      `json:"paymentType"`
	Installments int         `json:"installments"`
	FirstDueDate string      `json:"firstDueDate"`
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var in saleInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	total, err := core.ParseMoney(in.TotalValue.String())
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	plan := workflow.PaymentPlan{
		Type:     core.PaymentType(in.PaymentType),
		Count:    in.Installments,
		FirstDue: core.ParseDate(in.FirstDueDate),
	}
	if plan.Type == "" {
		plan.Type = core.PaymentSingle
	}
	if plan.Count < 1 {
		plan.Count = 1
	}
	if plan.FirstDue.IsZero() {
		plan.FirstDue = core.Today()
	}
	sale, err := s.workflow.CreateSale(r.Context(), core.Sale{
		ClientID:    in.ClientID,
		Description: in.Description,
		TotalValue:  total,
	}, plan)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": sale.ID})
}

type markPaidInput struct {
	IDs      []string `json:"ids"`
	PaidDate string   `json:"paidDate"`
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	var in markPaidInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	paidDate := core.ParseDate(in.PaidDate)
	if paidDate.IsZero() {
		paidDate = core.Today()
	}
	state := s.sync.Snapshot()
	if err := s.workflow.MarkInstallmentsPaid(r.Context(), in.IDs, state.Installments, paidDate); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteInstallments(w http.ResponseWriter, r *http.Request) {
	var in idsInput
	if !s.decodeBody(w, r, &in) {
		return
	}
	if err := s.workflow.DeleteInstallments(r.Context(), in.IDs); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	if err := s.workflow.CompleteOnboarding(r.Context(), state.Settings); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportReceivables(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	rows := export.ReceivablesRows(state.Installments, state.Clients, core.Today(), s.horizonDays)
	s.writeCSV(w, r, "receivables.csv", "Receivables", rows)
}

func (s *Server) handleExportClients(w http.ResponseWriter, r *http.Request) {
	state := s.sync.Snapshot()
	rows := export.ClientRows(state.Clients, state.Sales, state.Installments)
	s.writeCSV(w, r, "clients.csv", "Clients", rows)
}

func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, filename, title string, rows [][]any) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.NewCSVWriter(w).WriteRows(r.Context(), title, rows); err != nil {
		s.logger.Error("write csv export", log.FieldError, err.Error())
	}
}

// handleExportSheets pushes the three standard reports to the
// configured spreadsheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("no spreadsheet configured"))
		return
	}
	state := s.sync.Snapshot()
	today := core.Today()
	reports := []struct {
		title string
		rows  [][]any
	}{
		{"Receivables", export.ReceivablesRows(state.Installments, state.Clients, today, s.horizonDays)},
		{"Clients", export.ClientRows(state.Clients, state.Sales, state.Installments)},
		{"Monthly", export.MonthlyRows(state.Installments, state.Expenses, today.Year(), today.Month())},
	}
	for _, rep := range reports {
		if err := s.sheets.WriteRows(r.Context(), rep.title, rep.rows); err != nil {
			s.writeError(w, http.StatusBadGateway, fmt.Errorf("export %s: %w", rep.title, err))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) findQuote(id string) (core.Quote, bool) {
	for _, q := range s.sync.Snapshot().Quotes {
		if q.ID == id {
			return q, true
		}
	}
	return core.Quote{}, false
}

// writeWorkflowError maps domain errors onto HTTP statuses.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrUnauthenticated):
		s.writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, workflow.ErrAlreadyConverted),
		errors.Is(err, workflow.ErrNothingSelected):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrMissingClient),
		errors.Is(err, core.ErrInvalidValue),
		errors.Is(err, core.ErrInvalidPlan):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.logger.Error("request failed", log.FieldError, err.Error())
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func yearMonthParams(r *http.Request, today core.Date) (int, time.Month) {
	year := today.Year()
	month := today.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := r.URL.Query().Get("month"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		}
	}
	return year, month
}
