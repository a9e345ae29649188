package v1

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/ledger"
)

func (s *Server) postBudget(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostBudget).(postBudgetRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	amount, err := money.NewAmountFromMinorUnits(req.Currency, req.AmountMinor)
	if err != nil {
		badRequest(w, "invalid currency")
		return
	}
	b := ledger.Budget{
		UserID:               req.UserID,
		CategoryID:           req.CategoryID,
		Name:                 req.Name,
		Amount:               amount,
		Period:               req.Period,
		IncludeSubcategories: req.IncludeSubcategories,
		Recurring:            true,
	}
	if req.StartDate != nil {
		b.StartDate = req.StartDate.UTC()
	}
	if req.Recurring != nil {
		b.Recurring = *req.Recurring
	}
	created, err := s.budgetSvc.Create(r.Context(), b)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyListBudgets)
	budgets, err := s.store.BudgetsByUser(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	toJSON(w, http.StatusOK, out)
}

// asOfParam parses an optional as_of RFC3339 query param, defaulting to now.
func asOfParam(r *http.Request) time.Time {
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

func (s *Server) getBudgetProgress(w http.ResponseWriter, r *http.Request) {
	budgetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid budget id")
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		badRequest(w, "user_id is required")
		return
	}
	progress, err := s.budgetSvc.Progress(r.Context(), userID, budgetID, asOfParam(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toBudgetProgressResponse(progress))
}

func (s *Server) getBudgetSummary(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyBudgetSummary)
	summary, err := s.budgetSvc.Summary(r.Context(), userID, asOfParam(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	resp := budgetSummaryResponse{
		Total:       summary.Total,
		Under:       summary.Under,
		Approaching: summary.Approaching,
		Over:        summary.Over,
		Alerts:      make([]budgetProgressResponse, 0, len(summary.Alerts)),
	}
	for _, p := range summary.Alerts {
		resp.Alerts = append(resp.Alerts, toBudgetProgressResponse(p))
	}
	toJSON(w, http.StatusOK, resp)
}
