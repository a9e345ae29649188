package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
)

type ctxKey string

const (
	ctxKeyPostEntry        ctxKey = "validatedPostEntry"
	ctxKeyListEntries      ctxKey = "validatedListEntries"
	ctxKeyImport           ctxKey = "validatedImport"
	ctxKeyClassify         ctxKey = "validatedClassify"
	ctxKeyBalances         ctxKey = "validatedBalances"
	ctxKeyPostSettlement   ctxKey = "validatedPostSettlement"
	ctxKeyListSettlements  ctxKey = "validatedListSettlements"
	ctxKeyPostBudget       ctxKey = "validatedPostBudget"
	ctxKeyListBudgets      ctxKey = "validatedListBudgets"
	ctxKeyBudgetSummary    ctxKey = "validatedBudgetSummary"
	ctxKeyPostAccount      ctxKey = "validatedPostAccount"
	ctxKeyListAccounts     ctxKey = "validatedListAccounts"
	ctxKeyPostCategory     ctxKey = "validatedPostCategory"
	ctxKeyListCategories   ctxKey = "validatedListCategories"
	ctxKeyPostRule         ctxKey = "validatedPostRule"
	ctxKeyListRules        ctxKey = "validatedListRules"
	ctxKeyCategorySpending ctxKey = "validatedCategorySpending"
)

// decodeJSON decodes a strict JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// validateUserQuery parses and validates the user_id query param shared by
// the list endpoints, stashing it under the given key.
func (s *Server) validateUserQuery(key ctxKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get("user_id")
			if raw == "" {
				badRequest(w, "user_id is required")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid user_id")
				return
			}
			ctx := context.WithValue(r.Context(), key, listEntriesQuery{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromCtx(r *http.Request, key ctxKey) uuid.UUID {
	q, _ := r.Context().Value(key).(listEntriesQuery)
	return q.UserID
}

// validatePostEntry checks the POST /entries request against the entry
// invariants and stores the assembled domain entry in the request context.
func (s *Server) validatePostEntry() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postEntryRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.UserID == uuid.Nil {
				badRequest(w, "user_id is required")
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					unprocessable(w, "validation_error", "validation_error")
					return
				}
			}
			entry, err := s.toEntryDomain(req)
			if err != nil {
				serviceError(w, err)
				return
			}
			if err := entry.Validate(); err != nil {
				serviceError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostEntry, postEntryCtx{entry: entry, learn: req.Learn})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type postEntryCtx struct {
	entry ledger.LedgerEntry
	learn bool
}

func (s *Server) validateImport() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req importRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.UserID == uuid.Nil || req.AccountID == uuid.Nil {
				badRequest(w, "user_id and account_id are required")
				return
			}
			switch req.Source {
			case ledger.SourceCSV, ledger.SourceSimpleFin, ledger.SourceGoCardless, ledger.SourceManual:
			case "":
				req.Source = ledger.SourceCSV
			default:
				badRequest(w, "unknown source")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyImport, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validateClassify() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req classifyRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.UserID == uuid.Nil || req.Description == "" {
				badRequest(w, "user_id and description are required")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyClassify, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostSettlement() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postSettlementRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.PayerID == uuid.Nil || req.ReceiverID == uuid.Nil {
				badRequest(w, "payer_id and receiver_id are required")
				return
			}
			if req.AmountMinor <= 0 || req.Currency == "" {
				badRequest(w, "amount_minor and currency are required")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostSettlement, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostBudget() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postBudgetRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.UserID == uuid.Nil || req.CategoryID == uuid.Nil {
				badRequest(w, "user_id and category_id are required")
				return
			}
			if req.AmountMinor < 0 || req.Currency == "" {
				badRequest(w, "amount_minor and currency are required")
				return
			}
			switch req.Period {
			case ledger.PeriodWeekly, ledger.PeriodMonthly, ledger.PeriodYearly:
			default:
				badRequest(w, "period must be weekly, monthly or yearly")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostBudget, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postAccountRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.UserID == uuid.Nil || req.Name == "" || req.Currency == "" {
				badRequest(w, "user_id, name and currency are required")
				return
			}
			switch req.Type {
			case ledger.AccountTypeChecking, ledger.AccountTypeSavings, ledger.AccountTypeCredit, ledger.AccountTypeInvestment:
			default:
				badRequest(w, "unknown account type")
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					unprocessable(w, "validation_error", "validation_error")
					return
				}
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostCategory() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postCategoryRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.UserID == uuid.Nil || req.Name == "" {
				badRequest(w, "user_id and name are required")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostCategory, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) validatePostRule() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postRuleRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.UserID == uuid.Nil || req.CategoryID == uuid.Nil || req.Keyword == "" {
				badRequest(w, "user_id, category_id and keyword are required")
				return
			}
			switch req.Kind {
			case ledger.RuleLiteral, ledger.RuleRegex:
			case "":
				req.Kind = ledger.RuleLiteral
			default:
				badRequest(w, "kind must be literal or regex")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostRule, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
