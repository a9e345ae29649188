package transfer

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
)

// transferKeywords are description fragments that mark a transaction as a
// movement between the user's own accounts rather than spending. Matching
// is case-insensitive substring containment.
var transferKeywords = []string{
	"transfer",
	"xfer",
	"move",
	"moved to",
	"sent to",
	"to account",
	"from account",
	"between accounts",
	"internal",
	"account to account",
	"trx to",
	"trx from",
	"trans to",
	"trans from",
	"ach withdrawal",
	"robinhood",
	"bk of amer visa online pmt",
	"payment thank you",
}

// Repo defines read operations needed by the detector.
type Repo interface {
	AccountsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
}

// Detection is the outcome of inspecting one transaction description.
type Detection struct {
	IsTransfer           bool
	SourceAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
}

// Service decides whether a transaction is an inter-account transfer and
// tries to resolve the destination account from the description.
type Service interface {
	Detect(ctx context.Context, userID uuid.UUID, description string, sourceAccountID *uuid.UUID) (Detection, error)
	// IsTransferDescription reports the keyword heuristic alone, without an
	// account lookup.
	IsTransferDescription(description string) bool
}

type service struct {
	repo Repo
}

func New(repo Repo) Service {
	return &service{repo: repo}
}

func (s *service) IsTransferDescription(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range transferKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// Detect scans the user's other active accounts for one whose name appears
// in the description. The first such account becomes the destination; when
// none is found the transfer keeps a nil destination. Without a source
// account there is nothing to transfer between, so detection is skipped.
func (s *service) Detect(ctx context.Context, userID uuid.UUID, description string, sourceAccountID *uuid.UUID) (Detection, error) {
	if sourceAccountID == nil || !s.IsTransferDescription(description) {
		return Detection{SourceAccountID: sourceAccountID}, nil
	}

	det := Detection{IsTransfer: true, SourceAccountID: sourceAccountID}
	accounts, err := s.repo.AccountsByUser(ctx, userID)
	if err != nil {
		// The transfer verdict stands even when the account scan fails.
		return det, err
	}

	desc := strings.ToLower(description)
	for _, acc := range accounts {
		if !acc.Active || acc.Name == "" {
			continue
		}
		if sourceAccountID != nil && acc.ID == *sourceAccountID {
			continue
		}
		if strings.Contains(desc, strings.ToLower(acc.Name)) {
			id := acc.ID
			det.DestinationAccountID = &id
			break
		}
	}
	return det, nil
}
