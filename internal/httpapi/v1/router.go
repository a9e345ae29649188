// Package v1 wires the HTTP surface of the fintrack service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/fintrack/internal/service/budget"
	"github.com/tinoosan/fintrack/internal/service/currency"
	"github.com/tinoosan/fintrack/internal/service/importer"
	"github.com/tinoosan/fintrack/internal/service/rules"
	"github.com/tinoosan/fintrack/internal/service/splits"
	"github.com/tinoosan/fintrack/internal/service/transfer"
)

// Server wires handlers and middleware using Chi. It composes the services
// over one storage implementation.
type Server struct {
	store       Store
	currencySvc currency.Service
	rulesSvc    rules.Service
	transferSvc transfer.Service
	importerSvc importer.Service
	splitsSvc   splits.Service
	budgetSvc   budget.Service
	log         *slog.Logger
	rt          *chi.Mux
}

// New constructs the HTTP server with routes and middleware. rateSrc may be
// nil; rate refresh then reports a failure instead of fetching.
func New(store Store, rateSrc currency.RateSource, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	currencySvc := currency.New(store, store, rateSrc)
	rulesSvc := rules.New(store, store)
	transferSvc := transfer.New(store)
	splitsSvc := splits.New(store, store, currencySvc)

	s := &Server{
		store:       store,
		currencySvc: currencySvc,
		rulesSvc:    rulesSvc,
		transferSvc: transferSvc,
		importerSvc: importer.New(store, store, rulesSvc, transferSvc, logger),
		splitsSvc:   splitsSvc,
		budgetSvc:   budget.New(store, store, splitsSvc, currencySvc),
		log:         logger,
		rt:          r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route
// middleware.
func (s *Server) routes() {
	// Entries
	s.rt.With(s.validatePostEntry()).Post("/v1/entries", s.postEntry)
	s.rt.With(s.validateUserQuery(ctxKeyListEntries)).Get("/v1/entries", s.listEntries)
	s.rt.Get("/v1/entries/{id}", s.getEntry)
	// Import + classification
	s.rt.With(s.validateImport()).Post("/v1/import", s.postImport)
	s.rt.With(s.validateClassify()).Post("/v1/classify", s.postClassify)
	// Currency
	s.rt.Get("/v1/convert", s.getConvert)
	s.rt.Get("/v1/rates", s.listRates)
	s.rt.Post("/v1/rates/refresh", s.postRatesRefresh)
	// Balances + settlements
	s.rt.With(s.validateUserQuery(ctxKeyBalances)).Get("/v1/balances", s.getBalances)
	s.rt.With(s.validatePostSettlement()).Post("/v1/settlements", s.postSettlement)
	s.rt.With(s.validateUserQuery(ctxKeyListSettlements)).Get("/v1/settlements", s.listSettlements)
	// Budgets
	s.rt.With(s.validatePostBudget()).Post("/v1/budgets", s.postBudget)
	s.rt.With(s.validateUserQuery(ctxKeyListBudgets)).Get("/v1/budgets", s.listBudgets)
	s.rt.With(s.validateUserQuery(ctxKeyBudgetSummary)).Get("/v1/budgets/summary", s.getBudgetSummary)
	s.rt.Get("/v1/budgets/{id}/progress", s.getBudgetProgress)
	// Accounts
	s.rt.With(s.validatePostAccount()).Post("/v1/accounts", s.postAccount)
	s.rt.With(s.validateUserQuery(ctxKeyListAccounts)).Get("/v1/accounts", s.listAccounts)
	// Categories + rules
	s.rt.With(s.validatePostCategory()).Post("/v1/categories", s.postCategory)
	s.rt.With(s.validateUserQuery(ctxKeyListCategories)).Get("/v1/categories", s.listCategories)
	s.rt.Post("/v1/categories/seed", s.postSeedDefaults)
	s.rt.With(s.validatePostRule()).Post("/v1/rules", s.postRule)
	s.rt.With(s.validateUserQuery(ctxKeyListRules)).Get("/v1/rules", s.listRules)
	// Reports
	s.rt.With(s.validateUserQuery(ctxKeyCategorySpending)).Get("/v1/reports/category-spending", s.getCategorySpending)
	// Health + metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
