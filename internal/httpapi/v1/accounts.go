package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostAccount).(postAccountRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	acc := ledger.Account{
		ID:           uuid.New(),
		UserID:       req.UserID,
		Name:         req.Name,
		Type:         req.Type,
		Currency:     req.Currency,
		Balance:      ledger.ZeroAmount(req.Currency),
		ImportSource: ledger.SourceManual,
		Metadata:     meta.New(req.Metadata),
		Active:       true,
	}
	created, err := s.store.CreateAccount(r.Context(), acc)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyListAccounts)
	accounts, err := s.store.AccountsByUser(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}
