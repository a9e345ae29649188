package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
)

// Store is the full storage surface the API wires into its services. Both
// the memory and postgres stores satisfy it.
type Store interface {
	Ping(ctx context.Context) error

	UserByID(ctx context.Context, id uuid.UUID) (ledger.User, error)
	CreateUser(ctx context.Context, u ledger.User) (ledger.User, error)

	AccountByID(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	AccountsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)

	CategoriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error)
	CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error)

	RulesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error)
	ActiveRulesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error)
	CreateRule(ctx context.Context, r ledger.CategoryRule) (ledger.CategoryRule, error)
	UpdateRule(ctx context.Context, r ledger.CategoryRule) (ledger.CategoryRule, error)

	CurrencyByCode(ctx context.Context, code string) (ledger.Currency, error)
	BaseCurrency(ctx context.Context) (ledger.Currency, error)
	ListCurrencies(ctx context.Context) ([]ledger.Currency, error)
	UpdateCurrencyRates(ctx context.Context, currencies []ledger.Currency) error

	CreateEntry(ctx context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error)
	CreateEntriesBatch(ctx context.Context, entries []ledger.LedgerEntry) error
	UpdateEntry(ctx context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error)
	EntryByID(ctx context.Context, userID, entryID uuid.UUID) (ledger.LedgerEntry, error)
	EntriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error)
	EntryExists(ctx context.Context, userID uuid.UUID, source ledger.ImportSource, externalID string) (bool, error)
	SharedEntriesInvolving(ctx context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error)

	CreateSettlement(ctx context.Context, s ledger.Settlement) (ledger.Settlement, error)
	SettlementsInvolving(ctx context.Context, userID uuid.UUID) ([]ledger.Settlement, error)

	BudgetByID(ctx context.Context, userID, budgetID uuid.UUID) (ledger.Budget, error)
	BudgetsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Budget, error)
	CreateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error)
}
