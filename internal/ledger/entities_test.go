package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
)

func validExpense(t *testing.T) LedgerEntry {
	t.Helper()
	userID := uuid.New()
	return LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Description: "Grocery Store",
		Amount:      money.MustNewAmount("USD", 5000, 2),
		Date:        time.Now().UTC(),
		Type:        EntryTypeExpense,
		PaidBy:      userID,
	}
}

func TestEntryValidate(t *testing.T) {
	e := validExpense(t)
	if err := e.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	bad := e
	bad.Type = "refund"
	if err := bad.Validate(); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected invalid type, got %v", err)
	}

	bad = e
	bad.Amount = money.MustNewAmount("USD", -100, 2)
	if err := bad.Validate(); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected negative amount rejection, got %v", err)
	}

	bad = e
	bad.PaidBy = uuid.Nil
	if err := bad.Validate(); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected missing payer rejection, got %v", err)
	}
}

func TestEntryValidate_TransferConstraints(t *testing.T) {
	e := validExpense(t)
	e.Type = EntryTypeTransfer

	if err := e.Validate(); err != nil {
		t.Fatalf("plain transfer rejected: %v", err)
	}

	categorized := e
	categorized.Category = SingleCategory(uuid.New())
	if err := categorized.Validate(); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected categorized transfer rejection, got %v", err)
	}

	shared := e
	shared.SplitWith = []uuid.UUID{uuid.New()}
	if err := shared.Validate(); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected shared transfer rejection, got %v", err)
	}
}

func TestSplitCategories(t *testing.T) {
	total := money.MustNewAmount("USD", 5000, 2)
	a := uuid.New()
	b := uuid.New()

	cat, err := SplitCategories(total, []CategorySplit{
		{CategoryID: a, Amount: money.MustNewAmount("USD", 3000, 2)},
		{CategoryID: b, Amount: money.MustNewAmount("USD", 2000, 2)},
	})
	if err != nil {
		t.Fatalf("valid splits rejected: %v", err)
	}
	if ids := cat.CategoryIDs(); len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("unexpected category ids: %v", ids)
	}

	_, err = SplitCategories(total, []CategorySplit{
		{CategoryID: a, Amount: money.MustNewAmount("USD", 3000, 2)},
		{CategoryID: b, Amount: money.MustNewAmount("USD", 1000, 2)},
	})
	if !errors.Is(err, errs.ErrSplitMismatch) {
		t.Fatalf("expected split mismatch, got %v", err)
	}

	if _, err := SplitCategories(total, nil); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected empty splits rejection, got %v", err)
	}
}

func TestCategorizationVariant(t *testing.T) {
	var none Categorization
	if !none.IsNone() {
		t.Fatal("zero value should be uncategorized")
	}
	if _, ok := none.Single(); ok {
		t.Fatal("none has no single category")
	}

	id := uuid.New()
	single := SingleCategory(id)
	got, ok := single.Single()
	if !ok || got != id {
		t.Fatalf("single category lost: %v %v", got, ok)
	}
	if _, ok := single.CategorySplits(); ok {
		t.Fatal("single must not expose splits")
	}

	if !SingleCategory(uuid.Nil).IsNone() {
		t.Fatal("nil id should collapse to none")
	}
}

func TestEntryValidate_SplitsMustSum(t *testing.T) {
	e := validExpense(t)
	cat, err := SplitCategories(e.Amount, []CategorySplit{
		{CategoryID: uuid.New(), Amount: money.MustNewAmount("USD", 2500, 2)},
		{CategoryID: uuid.New(), Amount: money.MustNewAmount("USD", 2500, 2)},
	})
	if err != nil {
		t.Fatalf("splits: %v", err)
	}
	e.Category = cat
	if err := e.Validate(); err != nil {
		t.Fatalf("entry with matching splits rejected: %v", err)
	}
}

func decimalMustParse(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestAmountFromDecimal(t *testing.T) {
	d := decimalMustParse(t, "121")
	a, err := AmountFromDecimal("USD", d)
	if err != nil {
		t.Fatalf("amount from decimal: %v", err)
	}
	if a.String() != "USD 121.00" {
		t.Fatalf("unexpected amount: %s", a.String())
	}

	if _, err := AmountFromDecimal("NOPE", d); err == nil {
		t.Fatal("expected bad currency to fail")
	}
}
