package v1

import (
	"net/http"

	"github.com/tinoosan/fintrack/internal/ledger"
)

func (s *Server) postImport(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyImport).(importRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}

	raws := make([]ledger.RawTransaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		raws = append(raws, ledger.RawTransaction{
			ExternalID:   t.ExternalID,
			BookingDate:  t.BookingDate,
			Amount:       t.Amount,
			Description:  t.Description,
			CategoryHint: t.CategoryHint,
			Currency:     t.Currency,
		})
	}

	res, err := s.importerSvc.ImportBatch(r.Context(), req.UserID, req.AccountID, req.Source, raws)
	if err != nil {
		serviceError(w, err)
		return
	}
	observeImport(res.Imported, res.Skipped, res.Transfers)
	toJSON(w, http.StatusOK, res)
}

func (s *Server) postClassify(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyClassify).(classifyRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	categoryID, err := s.rulesSvc.Classify(r.Context(), req.UserID, req.Description)
	if err != nil {
		serviceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, classifyResponse{CategoryID: categoryID, Matched: categoryID != nil})
}
