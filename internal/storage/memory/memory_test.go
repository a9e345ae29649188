package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

func entryOn(userID uuid.UUID, desc string, date time.Time) ledger.LedgerEntry {
	return ledger.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Description: desc,
		Amount:      money.MustNewAmount("USD", 1000, 2),
		Date:        date,
		Type:        ledger.EntryTypeExpense,
		PaidBy:      userID,
	}
}

func TestUpdateEntry_ReindexesDate(t *testing.T) {
	store := New()
	userID := uuid.New()
	ctx := context.Background()
	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

	first := entryOn(userID, "first", base)
	second := entryOn(userID, "second", base.AddDate(0, 0, 1))
	if _, err := store.CreateEntry(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateEntry(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Move the first entry past the second; listing order must follow.
	first.Date = base.AddDate(0, 0, 5)
	if _, err := store.UpdateEntry(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}

	entries, err := store.EntriesByUser(ctx, userID)
	if err != nil || len(entries) != 2 {
		t.Fatalf("entries: %v %d", err, len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatalf("stale date index: %s, %s", entries[0].Description, entries[1].Description)
	}
}

func TestUpdateEntry_ReindexesProvenance(t *testing.T) {
	store := New()
	userID := uuid.New()
	ctx := context.Background()

	e := entryOn(userID, "imported", time.Now().UTC())
	e.Provenance = ledger.Provenance{Source: ledger.SourceCSV, ExternalID: "old-id"}
	if _, err := store.CreateEntry(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}

	e.Provenance.ExternalID = "new-id"
	if _, err := store.UpdateEntry(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}

	if ok, _ := store.EntryExists(ctx, userID, ledger.SourceCSV, "old-id"); ok {
		t.Fatal("old provenance key must be released")
	}
	if ok, _ := store.EntryExists(ctx, userID, ledger.SourceCSV, "new-id"); !ok {
		t.Fatal("new provenance key must be tracked")
	}

	// Taking another entry's provenance key is a duplicate.
	other := entryOn(userID, "other", time.Now().UTC())
	other.Provenance = ledger.Provenance{Source: ledger.SourceCSV, ExternalID: "taken"}
	if _, err := store.CreateEntry(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
	e.Provenance.ExternalID = "taken"
	if _, err := store.UpdateEntry(ctx, e); !errors.Is(err, errs.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if ok, _ := store.EntryExists(ctx, userID, ledger.SourceCSV, "new-id"); !ok {
		t.Fatal("rejected update must leave the index untouched")
	}
}
