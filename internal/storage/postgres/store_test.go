package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/ledger"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open for init: %v", err)
	}
	defer s.Close()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func truncateAll(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open for truncate: %v", err)
	}
	defer s.Close()
	_, _ = s.pool.Exec(ctx, `truncate table entry_splits, entry_participants, entries, budgets, settlements, category_rules, categories, accounts, currencies, users cascade`)
}

func TestStore_EndToEnd(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	truncateAll(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	user, err := s.CreateUser(ctx, ledger.User{ID: uuid.New(), Name: "Test User"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	acc, err := s.CreateAccount(ctx, ledger.Account{
		ID: uuid.New(), UserID: user.ID, Name: "Checking",
		Type: ledger.AccountTypeChecking, Currency: "USD",
		Balance: money.MustNewAmount("USD", 0, 2), ImportSource: ledger.SourceManual,
		Active: true,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	cat, err := s.CreateCategory(ctx, ledger.Category{
		ID: uuid.New(), UserID: user.ID, Name: "Groceries", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	rule, err := s.CreateRule(ctx, ledger.CategoryRule{
		ID: uuid.New(), UserID: user.ID, CategoryID: cat.ID,
		Keyword: "grocery", Kind: ledger.RuleLiteral, Priority: 5,
		Active: true, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	rule.MatchCount = 3
	if _, err := s.UpdateRule(ctx, rule); err != nil {
		t.Fatalf("update rule: %v", err)
	}
	active, err := s.ActiveRulesByUser(ctx, user.ID)
	if err != nil || len(active) != 1 || active[0].MatchCount != 3 {
		t.Fatalf("active rules: %v %+v", err, active)
	}

	rate, _ := decimal.Parse("1.1")
	if err := s.UpdateCurrencyRates(ctx, []ledger.Currency{
		{Code: "USD", RateToBase: decimal.One, IsBase: true, LastUpdated: time.Now().UTC()},
		{Code: "EUR", RateToBase: rate, LastUpdated: time.Now().UTC()},
	}); err != nil {
		t.Fatalf("update rates: %v", err)
	}
	base, err := s.BaseCurrency(ctx)
	if err != nil || base.Code != "USD" {
		t.Fatalf("base currency: %v %+v", err, base)
	}
	eur, err := s.CurrencyByCode(ctx, "eur")
	if err != nil || eur.RateToBase.String() != "1.1" {
		t.Fatalf("currency by code: %v %+v", err, eur)
	}

	accID := acc.ID
	amount := money.MustNewAmount("USD", 5000, 2)
	friend := uuid.New()
	entry := ledger.LedgerEntry{
		ID: uuid.New(), UserID: user.ID, AccountID: &accID,
		Description: "Grocery Store", Amount: amount,
		Date: time.Now().UTC(), Type: ledger.EntryTypeExpense,
		PaidBy: user.ID, SplitWith: []uuid.UUID{friend},
		Category:   ledger.SingleCategory(cat.ID),
		Provenance: ledger.Provenance{Source: ledger.SourceCSV, ExternalID: "ext-1"},
	}
	if _, err := s.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	got, err := s.EntryByID(ctx, user.ID, entry.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if id, ok := got.Category.Single(); !ok || id != cat.ID {
		t.Fatalf("category not restored: %+v", got.Category)
	}
	if len(got.SplitWith) != 1 || got.SplitWith[0] != friend {
		t.Fatalf("participants not restored: %+v", got.SplitWith)
	}

	exists, err := s.EntryExists(ctx, user.ID, ledger.SourceCSV, "ext-1")
	if err != nil || !exists {
		t.Fatalf("entry exists: %v %v", err, exists)
	}
	if err := s.CreateEntriesBatch(ctx, []ledger.LedgerEntry{entry}); err == nil {
		t.Fatal("expected duplicate batch to fail")
	}

	shared, err := s.SharedEntriesInvolving(ctx, friend)
	if err != nil || len(shared) != 1 {
		t.Fatalf("shared entries for participant: %v %d", err, len(shared))
	}

	stl, err := s.CreateSettlement(ctx, ledger.Settlement{
		ID: uuid.New(), PayerID: friend, ReceiverID: user.ID,
		Amount: money.MustNewAmount("USD", 2500, 2), Date: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create settlement: %v", err)
	}
	stls, err := s.SettlementsInvolving(ctx, user.ID)
	if err != nil || len(stls) != 1 || stls[0].ID != stl.ID {
		t.Fatalf("settlements: %v %+v", err, stls)
	}

	b, err := s.CreateBudget(ctx, ledger.Budget{
		ID: uuid.New(), UserID: user.ID, CategoryID: cat.ID,
		Amount: money.MustNewAmount("USD", 10000, 2), Period: ledger.PeriodMonthly,
		StartDate: time.Now().UTC(), Recurring: true, Active: true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := s.BudgetByID(ctx, user.ID, b.ID); err != nil {
		t.Fatalf("get budget: %v", err)
	}
}
