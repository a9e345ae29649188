package v1

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
)

// toEntryDomain assembles a domain entry from the request, resolving the
// categorization variant from either category_id or category_splits.
func (s *Server) toEntryDomain(req postEntryRequest) (ledger.LedgerEntry, error) {
	if req.CategoryID != nil && len(req.Splits) > 0 {
		return ledger.LedgerEntry{}, errs.ErrInvalid
	}
	amount, err := money.NewAmountFromMinorUnits(req.Currency, req.AmountMinor)
	if err != nil {
		return ledger.LedgerEntry{}, errs.ErrInvalid
	}

	paidBy := req.UserID
	if req.PaidBy != nil {
		paidBy = *req.PaidBy
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	entry := ledger.LedgerEntry{
		ID:          uuid.New(),
		UserID:      req.UserID,
		AccountID:   req.AccountID,
		Description: req.Description,
		Amount:      amount,
		Date:        date,
		Type:        req.Type,
		PaidBy:      paidBy,
		SplitWith:   req.SplitWith,
		GroupID:     req.GroupID,
		Provenance:  ledger.Provenance{Source: ledger.SourceManual},
		Metadata:    meta.New(req.Metadata),
	}

	if req.CategoryID != nil {
		entry.Category = ledger.SingleCategory(*req.CategoryID)
	}
	if len(req.Splits) > 0 {
		categorySplits := make([]ledger.CategorySplit, 0, len(req.Splits))
		for _, sp := range req.Splits {
			amt, err := money.NewAmountFromMinorUnits(req.Currency, sp.AmountMinor)
			if err != nil {
				return ledger.LedgerEntry{}, errs.ErrInvalid
			}
			categorySplits = append(categorySplits, ledger.CategorySplit{
				CategoryID: sp.CategoryID, Amount: amt, Note: sp.Note,
			})
		}
		cat, err := ledger.SplitCategories(amount, categorySplits)
		if err != nil {
			return ledger.LedgerEntry{}, err
		}
		entry.Category = cat
	}
	return entry, nil
}

func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	pc, ok := r.Context().Value(ctxKeyPostEntry).(postEntryCtx)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	entry := pc.entry

	// Uncategorized expenses run through the classifier before storing.
	if entry.Type == ledger.EntryTypeExpense && entry.Category.IsNone() {
		if categoryID, err := s.rulesSvc.Classify(r.Context(), entry.UserID, entry.Description); err == nil && categoryID != nil {
			entry.Category = ledger.SingleCategory(*categoryID)
		}
	}

	created, err := s.store.CreateEntry(r.Context(), entry)
	if err != nil {
		serviceError(w, err)
		return
	}

	// A manual categorization teaches the rule set when asked to.
	if pc.learn {
		if categoryID, ok := created.Category.Single(); ok {
			if _, err := s.rulesSvc.Learn(r.Context(), created.UserID, created.Description, categoryID); err != nil {
				s.log.Warn("learn from entry failed", "entry_id", created.ID, "err", err)
			}
		}
	}

	toJSON(w, http.StatusCreated, toEntryResponse(created))
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyListEntries)
	entries, err := s.store.EntriesByUser(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	items := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, listEntriesResponse{Items: items})
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	raw := r.URL.Query().Get("user_id")
	userID, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "user_id is required")
		return
	}
	entry, err := s.store.EntryByID(r.Context(), userID, entryID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(entry))
}
