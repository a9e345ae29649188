package v1

import (
	"net/http"
	"strconv"

	"github.com/govalues/money"
)

func (s *Server) getConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	rawAmount := q.Get("amount_minor")
	if from == "" || to == "" || rawAmount == "" {
		badRequest(w, "from, to and amount_minor are required")
		return
	}
	minor, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		badRequest(w, "invalid amount_minor")
		return
	}
	amount, err := money.NewAmountFromMinorUnits(from, minor)
	if err != nil {
		badRequest(w, "invalid from currency")
		return
	}

	converted := s.currencySvc.Convert(r.Context(), amount, to)
	outMinor, _ := converted.MinorUnits()
	toJSON(w, http.StatusOK, convertResponse{
		AmountMinor: outMinor,
		Amount:      converted.String(),
		Currency:    converted.Curr().Code(),
	})
}

func (s *Server) listRates(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.store.ListCurrencies(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]currencyResponse, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, currencyResponse{
			Code:        c.Code,
			Name:        c.Name,
			Symbol:      c.Symbol,
			RateToBase:  c.RateToBase.String(),
			IsBase:      c.IsBase,
			LastUpdated: c.LastUpdated,
		})
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postRatesRefresh(w http.ResponseWriter, r *http.Request) {
	updated, err := s.currencySvc.RefreshRates(r.Context())
	if err != nil {
		s.log.Warn("rate refresh failed", "err", err)
		writeErr(w, http.StatusBadGateway, "rate refresh failed", "rate_refresh_failed")
		return
	}
	toJSON(w, http.StatusOK, refreshRatesResponse{Updated: updated})
}
