package transfer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

func seedAccount(store *memory.Store, userID uuid.UUID, name string, active bool) ledger.Account {
	acc := ledger.Account{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		Type:     ledger.AccountTypeChecking,
		Currency: "USD",
		Balance:  money.MustNewAmount("USD", 0, 2),
		Active:   active,
	}
	store.SeedAccount(acc)
	return acc
}

func TestIsTransferDescription(t *testing.T) {
	svc := New(memory.New())
	for _, desc := range []string{
		"Online Transfer to Savings",
		"Balance transfer",
		"Moved to savings",
		"Sent to John",
		"Between accounts adjustment",
		"INTERNAL",
		"TRX TO 4421",
		"Trans from checking",
		"Wells Fargo XFER 0231",
		"ACH WITHDRAWAL ROBINHOOD",
		"BK OF AMER VISA ONLINE PMT",
		"AUTOMATIC PAYMENT THANK YOU",
	} {
		if !svc.IsTransferDescription(desc) {
			t.Errorf("expected transfer: %q", desc)
		}
	}
	for _, desc := range []string{
		"Starbucks Coffee #123",
		"Whole Foods Market",
		"Payroll Deposit",
		"",
	} {
		if svc.IsTransferDescription(desc) {
			t.Errorf("expected non-transfer: %q", desc)
		}
	}
}

func TestDetect_ResolvesDestination(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	checking := seedAccount(store, userID, "Demo Checking", true)
	savings := seedAccount(store, userID, "Demo Savings", true)

	svc := New(store)
	srcID := checking.ID
	det, err := svc.Detect(context.Background(), userID, "Transfer to Demo Savings", &srcID)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !det.IsTransfer {
		t.Fatal("expected transfer")
	}
	if det.DestinationAccountID == nil || *det.DestinationAccountID != savings.ID {
		t.Fatalf("expected savings destination, got %v", det.DestinationAccountID)
	}
	if det.SourceAccountID == nil || *det.SourceAccountID != checking.ID {
		t.Fatalf("source lost: %v", det.SourceAccountID)
	}
}

func TestDetect_SkipsSourceAndInactive(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	checking := seedAccount(store, userID, "Checking", true)
	seedAccount(store, userID, "Old Checking", false)

	svc := New(store)
	srcID := checking.ID
	// Description names the source account and an inactive one; neither may
	// become the destination.
	det, err := svc.Detect(context.Background(), userID, "Transfer from Old Checking", &srcID)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !det.IsTransfer {
		t.Fatal("expected transfer")
	}
	if det.DestinationAccountID != nil {
		t.Fatalf("expected nil destination, got %v", det.DestinationAccountID)
	}
}

func TestDetect_NoSourceAccount(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	seedAccount(store, userID, "Savings", true)

	svc := New(store)
	det, err := svc.Detect(context.Background(), userID, "Transfer to Savings", nil)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if det.IsTransfer {
		t.Fatal("no source account means no transfer")
	}
}

func TestDetect_NonTransfer(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	checking := seedAccount(store, userID, "Checking", true)

	svc := New(store)
	srcID := checking.ID
	det, err := svc.Detect(context.Background(), userID, "Grocery Store", &srcID)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if det.IsTransfer || det.DestinationAccountID != nil {
		t.Fatalf("unexpected detection: %+v", det)
	}
}
