package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/ledger"
)

func (s *Server) getBalances(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyBalances)
	balances, err := s.splitsSvc.Balances(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]balanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, toBalanceResponse(b))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postSettlement(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyPostSettlement).(postSettlementRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	amount, err := money.NewAmountFromMinorUnits(req.Currency, req.AmountMinor)
	if err != nil {
		badRequest(w, "invalid currency")
		return
	}
	st := ledger.Settlement{
		ID:          uuid.New(),
		PayerID:     req.PayerID,
		ReceiverID:  req.ReceiverID,
		Amount:      amount,
		Description: req.Description,
	}
	if req.Date != nil {
		st.Date = req.Date.UTC()
	}
	created, err := s.splitsSvc.RecordSettlement(r.Context(), st)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toSettlementResponse(created))
}

func (s *Server) listSettlements(w http.ResponseWriter, r *http.Request) {
	userID := userFromCtx(r, ctxKeyListSettlements)
	settlements, err := s.store.SettlementsInvolving(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]settlementResponse, 0, len(settlements))
	for _, st := range settlements {
		out = append(out, toSettlementResponse(st))
	}
	toJSON(w, http.StatusOK, out)
}
