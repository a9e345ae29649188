package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
)

func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostCategory).(postCategoryRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	created, err := s.store.CreateCategory(r.Context(), ledger.Category{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Name:      req.Name,
		ParentID:  req.ParentID,
		Icon:      req.Icon,
		Color:     req.Color,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyListCategories)
	categories, err := s.store.CategoriesByUser(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postSeedDefaults(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		badRequest(w, "user_id is required")
		return
	}
	created, err := s.rulesSvc.SeedDefaults(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]int{"rules_created": created})
}

func (s *Server) postRule(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostRule).(postRuleRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	created, err := s.store.CreateRule(r.Context(), ledger.CategoryRule{
		ID:         uuid.New(),
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		Keyword:    req.Keyword,
		Kind:       req.Kind,
		Priority:   req.Priority,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toRuleResponse(created))
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyListRules)
	rules, err := s.store.RulesByUser(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	toJSON(w, http.StatusOK, out)
}
