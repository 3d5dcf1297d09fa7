package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetOrderStatusSummary(ctx context.Context, arg database.GetOrderStatusSummaryParams) ([]database.GetOrderStatusSummaryRow, error)
	GetDailySales(ctx context.Context, arg database.GetDailySalesParams) ([]database.GetDailySalesRow, error)
}

// ReportsHandler serves aggregate order reports for admins.
type ReportsHandler struct {
	store ReportsStore
	log   *logrus.Entry
	now   func() time.Time
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore, log *logrus.Entry) *ReportsHandler {
	return &ReportsHandler{store: store, log: log, now: time.Now}
}

// RegisterRoutes registers report endpoints. Expected at /api/admin/reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/daily-sales", h.DailySales)
}

type statusSummaryResponse struct {
	Status     string `json:"status"`
	OrderCount int64  `json:"order_count"`
	Revenue    string `json:"revenue"`
}

type summaryResponse struct {
	StartDate   string                  `json:"start_date"`
	EndDate     string                  `json:"end_date"`
	TotalOrders int64                   `json:"total_orders"`
	Statuses    []statusSummaryResponse `json:"statuses"`
}

type dailySalesResponse struct {
	Date       string `json:"date"`
	OrderCount int64  `json:"order_count"`
	Revenue    string `json:"revenue"`
}

const dateLayout = "2006-01-02"

// parseDateRange reads start_date and end_date (YYYY-MM-DD, UTC, both
// inclusive). The default is the last 30 days. The returned end is exclusive.
func parseDateRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -30)
	end := today.AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %w", err)
		}
		end = t.AddDate(0, 0, 1)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must not be after end_date")
	}
	return start, end, nil
}

// reportParams resolves scope and date range shared by every report.
func (h *ReportsHandler) reportParams(w http.ResponseWriter, r *http.Request) (pgtype.UUID, time.Time, time.Time, bool) {
	scope, err := adminScope(middleware.ActorFromContext(r.Context()), r)
	if err != nil {
		writeScopeError(w, err)
		return pgtype.UUID{}, time.Time{}, time.Time{}, false
	}

	start, end, err := parseDateRange(r, h.now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return pgtype.UUID{}, time.Time{}, time.Time{}, false
	}
	return scope, start, end, true
}

// Summary returns order count and revenue per status.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	scope, start, end, ok := h.reportParams(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetOrderStatusSummary(r.Context(), database.GetOrderStatusSummaryParams{
		RegionID:  scope,
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		writeInternal(w, h.log, r, "order status summary", err)
		return
	}

	resp := summaryResponse{
		StartDate: start.Format(dateLayout),
		EndDate:   end.AddDate(0, 0, -1).Format(dateLayout),
		Statuses:  make([]statusSummaryResponse, len(rows)),
	}
	for i, row := range rows {
		resp.TotalOrders += row.OrderCount
		resp.Statuses[i] = statusSummaryResponse{
			Status:     string(row.Status),
			OrderCount: row.OrderCount,
			Revenue:    money(row.Revenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// DailySales returns per-day order count and revenue, excluding cancelled orders.
func (h *ReportsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	scope, start, end, ok := h.reportParams(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetDailySales(r.Context(), database.GetDailySalesParams{
		RegionID:  scope,
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		writeInternal(w, h.log, r, "daily sales", err)
		return
	}

	resp := make([]dailySalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = dailySalesResponse{
			Date:       row.Day.Time.Format(dateLayout),
			OrderCount: row.OrderCount,
			Revenue:    money(row.Revenue),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
