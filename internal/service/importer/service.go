// Package importer turns raw provider transactions into ledger entries.
// The pipeline degrades rather than aborts: a record that cannot be fully
// enriched still imports with the safest defaults, and only structurally
// unusable records are skipped.
package importer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/transfer"
)

// Repo defines read operations needed by the service.
type Repo interface {
	AccountByID(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
	// EntryExists reports whether an entry with the given provenance key is
	// already stored for the user.
	EntryExists(ctx context.Context, userID uuid.UUID, source ledger.ImportSource, externalID string) (bool, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	// CreateEntriesBatch persists the batch atomically.
	CreateEntriesBatch(ctx context.Context, entries []ledger.LedgerEntry) error
}

// Classifier is the slice of the rules service the pipeline needs.
type Classifier interface {
	Classify(ctx context.Context, userID uuid.UUID, description string) (*uuid.UUID, error)
	ResolveCategory(ctx context.Context, userID uuid.UUID, name, description string, autoCreate bool) (*uuid.UUID, error)
}

// Detector is the slice of the transfer service the pipeline needs.
type Detector interface {
	Detect(ctx context.Context, userID uuid.UUID, description string, sourceAccountID *uuid.UUID) (transfer.Detection, error)
}

// Result summarizes one batch import.
type Result struct {
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Transfers int `json:"transfers"`
}

// Service builds ledger entries from raw provider records and imports them
// in deduplicated batches.
type Service interface {
	// BuildEntry converts one raw record. A (nil, nil) return means the
	// record was skipped as unusable; errors are reserved for storage
	// failures.
	BuildEntry(ctx context.Context, userID uuid.UUID, source ledger.ImportSource, raw ledger.RawTransaction, account *ledger.Account) (*ledger.LedgerEntry, error)
	// ImportBatch builds and persists a batch for one account, deduplicating
	// on (user, external id, source).
	ImportBatch(ctx context.Context, userID, accountID uuid.UUID, source ledger.ImportSource, raws []ledger.RawTransaction) (Result, error)
}

type service struct {
	repo       Repo
	writer     Writer
	classifier Classifier
	detector   Detector
	logger     *slog.Logger
	now        func() time.Time
}

func New(repo Repo, writer Writer, classifier Classifier, detector Detector, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:       repo,
		writer:     writer,
		classifier: classifier,
		detector:   detector,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *service) BuildEntry(ctx context.Context, userID uuid.UUID, source ledger.ImportSource, raw ledger.RawTransaction, account *ledger.Account) (*ledger.LedgerEntry, error) {
	if raw.ExternalID == "" || raw.BookingDate == "" || strings.TrimSpace(raw.Amount) == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", raw.BookingDate)
	if err != nil {
		return nil, nil
	}
	signed, err := decimal.Parse(strings.TrimSpace(raw.Amount))
	if err != nil {
		return nil, nil
	}

	code := raw.Currency
	if code == "" && account != nil {
		code = account.Currency
	}
	if code == "" {
		code = "USD"
	}

	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = "Imported transaction"
	}

	var accountID *uuid.UUID
	if account != nil {
		id := account.ID
		accountID = &id
	}

	entry := ledger.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   accountID,
		Description: description,
		Date:        date,
		PaidBy:      userID,
		Provenance:  ledger.Provenance{Source: source, ExternalID: raw.ExternalID},
	}

	det, err := s.detector.Detect(ctx, userID, description, accountID)
	if err != nil {
		s.logger.Warn("transfer detection degraded",
			slog.String("external_id", raw.ExternalID), slog.Any("error", err))
	}

	if det.IsTransfer {
		entry.Type = ledger.EntryTypeTransfer
		entry.DestinationAccountID = det.DestinationAccountID
		amount, err := ledger.AmountFromDecimal(code, signed.Abs())
		if err != nil {
			return nil, nil
		}
		entry.Amount = amount
		return &entry, nil
	}

	// Sign carries the direction: negative is money out.
	if signed.IsNeg() {
		entry.Type = ledger.EntryTypeExpense
	} else if signed.IsZero() {
		return nil, nil
	} else {
		entry.Type = ledger.EntryTypeIncome
	}
	amount, err := ledger.AmountFromDecimal(code, signed.Abs())
	if err != nil {
		return nil, nil
	}
	entry.Amount = amount

	categoryID := s.categorize(ctx, userID, description, raw.CategoryHint)
	if categoryID != nil {
		entry.Category = ledger.SingleCategory(*categoryID)
	}
	return &entry, nil
}

// categorize tries the user's rules first and falls back to the provider's
// category hint. Failures leave the entry uncategorized.
func (s *service) categorize(ctx context.Context, userID uuid.UUID, description, hint string) *uuid.UUID {
	categoryID, err := s.classifier.Classify(ctx, userID, description)
	if err != nil {
		s.logger.Warn("classification degraded", slog.Any("error", err))
		categoryID = nil
	}
	if categoryID == nil && hint != "" {
		categoryID, err = s.classifier.ResolveCategory(ctx, userID, hint, description, true)
		if err != nil {
			s.logger.Warn("category hint resolution degraded",
				slog.String("hint", hint), slog.Any("error", err))
			categoryID = nil
		}
	}
	return categoryID
}

func (s *service) ImportBatch(ctx context.Context, userID, accountID uuid.UUID, source ledger.ImportSource, raws []ledger.RawTransaction) (Result, error) {
	var res Result

	account, err := s.repo.AccountByID(ctx, userID, accountID)
	if err != nil {
		return res, err
	}

	batch := make([]ledger.LedgerEntry, 0, len(raws))
	// Tracks external ids already taken by this batch: a payload repeating
	// an id must not insert twice (or trip the store's dedupe constraint).
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		if raw.ExternalID != "" {
			if _, dup := seen[raw.ExternalID]; dup {
				res.Skipped++
				continue
			}
			exists, err := s.repo.EntryExists(ctx, userID, source, raw.ExternalID)
			if err != nil {
				return res, err
			}
			if exists {
				res.Skipped++
				continue
			}
			seen[raw.ExternalID] = struct{}{}
		}
		entry, err := s.BuildEntry(ctx, userID, source, raw, &account)
		if err != nil {
			return res, err
		}
		if entry == nil {
			res.Skipped++
			continue
		}
		if entry.Type == ledger.EntryTypeTransfer {
			res.Transfers++
		}
		batch = append(batch, *entry)
	}

	if len(batch) > 0 {
		if err := s.writer.CreateEntriesBatch(ctx, batch); err != nil {
			return Result{}, err
		}
	}
	res.Imported = len(batch)
	s.logger.Info("import batch complete",
		slog.String("account_id", accountID.String()),
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped),
		slog.Int("transfers", res.Transfers))
	return res, nil
}
