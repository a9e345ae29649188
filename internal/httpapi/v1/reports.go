package v1

import (
	"net/http"
)

func (s *Server) getCategorySpending(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyCategorySpending)
	rows, err := s.splitsSvc.CategorySpending(r.Context(), userID, asOfParam(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]categorySpendResponse, 0, len(rows))
	for _, cs := range rows {
		out = append(out, toCategorySpendResponse(cs))
	}
	toJSON(w, http.StatusOK, out)
}
