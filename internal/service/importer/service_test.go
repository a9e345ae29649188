package importer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/rules"
	"github.com/tinoosan/fintrack/internal/service/transfer"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	svc     Service
	userID  uuid.UUID
	account ledger.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	account := ledger.Account{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     "Checking",
		Type:     ledger.AccountTypeChecking,
		Currency: "USD",
		Balance:  money.MustNewAmount("USD", 0, 2),
		Active:   true,
	}
	store.SeedAccount(account)

	logger := slog.New(slog.DiscardHandler)
	svc := New(store, store, rules.New(store, store), transfer.New(store), logger)
	return &fixture{store: store, svc: svc, userID: userID, account: account}
}

func TestImportBatch(t *testing.T) {
	f := newFixture(t)
	groceries := ledger.Category{ID: uuid.New(), UserID: f.userID, Name: "Groceries", CreatedAt: time.Now().UTC()}
	f.store.SeedCategory(groceries)
	f.store.SeedRule(ledger.CategoryRule{
		ID: uuid.New(), UserID: f.userID, CategoryID: groceries.ID,
		Keyword: "grocery", Kind: ledger.RuleLiteral, Priority: 5, Active: true,
		CreatedAt: time.Now().UTC(),
	})
	savings := ledger.Account{
		ID: uuid.New(), UserID: f.userID, Name: "Savings",
		Type: ledger.AccountTypeSavings, Currency: "USD",
		Balance: money.MustNewAmount("USD", 0, 2), Active: true,
	}
	f.store.SeedAccount(savings)

	raws := []ledger.RawTransaction{
		{ExternalID: "t1", BookingDate: "2026-08-01", Amount: "-54.20", Description: "Local Grocery Store"},
		{ExternalID: "t2", BookingDate: "2026-08-02", Amount: "2500.00", Description: "Payroll Deposit"},
		{ExternalID: "t3", BookingDate: "2026-08-03", Amount: "-500.00", Description: "Transfer to Savings"},
		{ExternalID: "t4", BookingDate: "not-a-date", Amount: "-10.00", Description: "Broken"},
		{ExternalID: "t5", BookingDate: "2026-08-04", Amount: "0", Description: "Zero hold"},
		{BookingDate: "2026-08-05", Amount: "-1.00", Description: "No external id"},
	}

	res, err := f.svc.ImportBatch(context.Background(), f.userID, f.account.ID, ledger.SourceCSV, raws)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 3 || res.Skipped != 3 || res.Transfers != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	entries, err := f.store.EntriesByUser(context.Background(), f.userID)
	if err != nil || len(entries) != 3 {
		t.Fatalf("entries: %v %d", err, len(entries))
	}

	byExt := map[string]ledger.LedgerEntry{}
	for _, e := range entries {
		byExt[e.Provenance.ExternalID] = e
	}

	grocery := byExt["t1"]
	if grocery.Type != ledger.EntryTypeExpense {
		t.Fatalf("negative amount should be an expense, got %s", grocery.Type)
	}
	if cmp, _ := grocery.Amount.Cmp(money.MustNewAmount("USD", 5420, 2)); cmp != 0 {
		t.Fatalf("amount should be stored absolute, got %v", grocery.Amount)
	}
	if id, ok := grocery.Category.Single(); !ok || id != groceries.ID {
		t.Fatalf("expected grocery categorization, got %v", grocery.Category)
	}

	if byExt["t2"].Type != ledger.EntryTypeIncome {
		t.Fatalf("positive amount should be income, got %s", byExt["t2"].Type)
	}

	tr := byExt["t3"]
	if tr.Type != ledger.EntryTypeTransfer {
		t.Fatalf("expected transfer, got %s", tr.Type)
	}
	if tr.DestinationAccountID == nil || *tr.DestinationAccountID != savings.ID {
		t.Fatalf("transfer destination not resolved: %v", tr.DestinationAccountID)
	}
	if !tr.Category.IsNone() {
		t.Fatal("transfers must stay uncategorized")
	}
}

func TestImportBatch_Deduplicates(t *testing.T) {
	f := newFixture(t)
	raws := []ledger.RawTransaction{
		{ExternalID: "dup-1", BookingDate: "2026-08-01", Amount: "-10.00", Description: "Coffee"},
	}

	first, err := f.svc.ImportBatch(context.Background(), f.userID, f.account.ID, ledger.SourceCSV, raws)
	if err != nil || first.Imported != 1 {
		t.Fatalf("first import: %+v %v", first, err)
	}

	second, err := f.svc.ImportBatch(context.Background(), f.userID, f.account.ID, ledger.SourceCSV, raws)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.Imported != 0 || second.Skipped != 1 {
		t.Fatalf("expected dedupe, got %+v", second)
	}
}

func TestImportBatch_DeduplicatesWithinBatch(t *testing.T) {
	f := newFixture(t)
	raws := []ledger.RawTransaction{
		{ExternalID: "tx-1", BookingDate: "2026-08-01", Amount: "-10.00", Description: "Coffee"},
		{ExternalID: "tx-1", BookingDate: "2026-08-01", Amount: "-10.00", Description: "Coffee"},
	}

	res, err := f.svc.ImportBatch(context.Background(), f.userID, f.account.ID, ledger.SourceCSV, raws)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 1 {
		t.Fatalf("repeated external id within one payload: %+v", res)
	}

	entries, err := f.store.EntriesByUser(context.Background(), f.userID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries: %v %d", err, len(entries))
	}
}

func TestBuildEntry_CategoryHint(t *testing.T) {
	f := newFixture(t)
	dining := ledger.Category{ID: uuid.New(), UserID: f.userID, Name: "Dining", CreatedAt: time.Now().UTC()}
	f.store.SeedCategory(dining)

	raw := ledger.RawTransaction{
		ExternalID:   "h1",
		BookingDate:  "2026-08-10",
		Amount:       "-23.00",
		Description:  "Some Restaurant",
		CategoryHint: "Dining",
	}
	entry, err := f.svc.BuildEntry(context.Background(), f.userID, ledger.SourceSimpleFin, raw, &f.account)
	if err != nil || entry == nil {
		t.Fatalf("build: %v %v", entry, err)
	}
	if id, ok := entry.Category.Single(); !ok || id != dining.ID {
		t.Fatalf("hint not resolved: %v", entry.Category)
	}
}

func TestBuildEntry_Defaults(t *testing.T) {
	f := newFixture(t)
	raw := ledger.RawTransaction{ExternalID: "d1", BookingDate: "2026-08-10", Amount: "-5.00"}

	entry, err := f.svc.BuildEntry(context.Background(), f.userID, ledger.SourceCSV, raw, &f.account)
	if err != nil || entry == nil {
		t.Fatalf("build: %v %v", entry, err)
	}
	if entry.Description != "Imported transaction" {
		t.Fatalf("description default missing: %q", entry.Description)
	}
	if entry.Amount.Curr().Code() != "USD" {
		t.Fatalf("currency should come from the account, got %s", entry.Amount.Curr().Code())
	}
	if entry.PaidBy != f.userID {
		t.Fatalf("payer default missing")
	}
}
