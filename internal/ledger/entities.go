package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/meta"
)

// EntryType classifies a ledger entry by the direction of money movement.
type EntryType string

const (
	// EntryTypeExpense records money leaving an account.
	EntryTypeExpense EntryType = "expense"
	// EntryTypeIncome records money arriving at an account.
	EntryTypeIncome EntryType = "income"
	// EntryTypeTransfer records money moving between two accounts of the
	// same user. Transfers are excluded from spending totals.
	EntryTypeTransfer EntryType = "transfer"
)

// AccountType enumerates the broad classification of a bank account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
)

// ImportSource records where an entry or account came from.
type ImportSource string

const (
	SourceManual     ImportSource = "manual"
	SourceCSV        ImportSource = "csv"
	SourceSimpleFin  ImportSource = "simplefin"
	SourceGoCardless ImportSource = "gocardless"
)

// RuleKind selects how a category rule keyword is evaluated.
type RuleKind string

const (
	// RuleLiteral matches when the keyword is a substring of the description.
	RuleLiteral RuleKind = "literal"
	// RuleRegex matches when the keyword compiles as a case-insensitive
	// regular expression that searches the description. Patterns that fail
	// to compile degrade to literal matching.
	RuleRegex RuleKind = "regex"
)

// Period enumerates budget period lengths.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// User captures the owner of ledger data.
type User struct {
	ID    uuid.UUID
	Name  string
	Email *string
}

// Account represents a bank account belonging to a user.
type Account struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Type     AccountType
	Currency string
	Balance  money.Amount
	// ImportSource and ExternalID track provenance for imported accounts.
	ImportSource ImportSource
	ExternalID   string
	// Metadata holds additional key-value attributes for the account.
	Metadata meta.Metadata `json:"metadata,omitempty"`
	LastSync *time.Time
	// Active indicates whether the account is active (soft-delete when false).
	Active bool
}

// Category is a node in a user's category tree. Root categories have a nil
// ParentID. System categories are protected from edit and delete.
type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	ParentID  *uuid.UUID
	Icon      string
	Color     string
	System    bool
	CreatedAt time.Time
}

// CategoryRule maps a description keyword to a category for one user.
// Rules are deactivated rather than deleted in the normal flow.
type CategoryRule struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CategoryID uuid.UUID
	Keyword    string
	Kind       RuleKind
	// Priority breaks ties between matching rules; higher wins.
	Priority int
	// MatchCount counts successful applications and is incremented each
	// time the rule wins a classification.
	MatchCount int
	Active     bool
	CreatedAt  time.Time
}

// Currency holds an ISO 4217 code and its exchange rate against the base
// currency. RateToBase is the amount of base currency equal to one unit of
// this currency. Exactly one currency is marked base at any time; a missing
// base means no conversion is possible and converters fail soft.
type Currency struct {
	Code        string
	Name        string
	Symbol      string
	RateToBase  decimal.Decimal
	IsBase      bool
	LastUpdated time.Time
}

// Settlement is a direct payer-to-receiver cash transfer recorded to cancel
// out owed balances. It is not a ledger entry; balance computation merges
// settlements in separately.
type Settlement struct {
	ID          uuid.UUID
	PayerID     uuid.UUID
	ReceiverID  uuid.UUID
	Amount      money.Amount
	Date        time.Time
	Description string
}

// Budget caps spending for one category over a repeating or fixed window.
type Budget struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CategoryID uuid.UUID
	// Name is an optional label; callers fall back to the category name.
	Name                 string
	Amount               money.Amount
	Period               Period
	IncludeSubcategories bool
	StartDate            time.Time
	Recurring            bool
	Active               bool
	CreatedAt            time.Time
}

// Provenance marks how a ledger entry entered the system. ExternalID is the
// provider transaction id and, together with the user and source, forms the
// deduplication key for imports.
type Provenance struct {
	Source     ImportSource
	ExternalID string
}

// CategorySplit allocates part of an entry's amount to one category.
type CategorySplit struct {
	CategoryID uuid.UUID
	Amount     money.Amount
	Note       string
}

// LedgerEntry is a financial transaction. Amount is always positive; the
// direction is carried by Type. SplitWith lists the participants the entry
// is shared with; the split calculator treats the list as authoritative for
// who owes, whether or not the payer appears in it.
type LedgerEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	AccountID   *uuid.UUID
	Description string
	Amount      money.Amount
	Date        time.Time
	Type        EntryType
	PaidBy      uuid.UUID
	SplitWith   []uuid.UUID
	GroupID     *uuid.UUID
	// DestinationAccountID is set only for transfers and may stay nil when
	// the destination could not be resolved.
	DestinationAccountID *uuid.UUID
	Category             Categorization
	Provenance           Provenance
	Metadata             meta.Metadata `json:"metadata,omitempty"`
}

// Validate checks the structural invariants of an entry.
func (e LedgerEntry) Validate() error {
	if e.UserID == uuid.Nil || e.PaidBy == uuid.Nil {
		return errs.ErrInvalid
	}
	switch e.Type {
	case EntryTypeExpense, EntryTypeIncome, EntryTypeTransfer:
	default:
		return errs.ErrInvalid
	}
	if e.Amount.IsNeg() {
		return errs.ErrInvalid
	}
	if e.Type == EntryTypeTransfer {
		// Transfers are never shared or categorized.
		if !e.Category.IsNone() || len(e.SplitWith) > 0 {
			return errs.ErrInvalid
		}
	}
	if splits, ok := e.Category.CategorySplits(); ok {
		sum, err := sumSplits(e.Amount.Curr().Code(), splits)
		if err != nil {
			return err
		}
		if cmp, err := sum.Cmp(e.Amount); err != nil || cmp != 0 {
			return errs.ErrSplitMismatch
		}
	}
	return nil
}

func sumSplits(currency string, splits []CategorySplit) (money.Amount, error) {
	sum, err := money.NewAmount(currency, 0, 0)
	if err != nil {
		return money.Amount{}, errs.ErrInvalid
	}
	for _, sp := range splits {
		sum, err = sum.Add(sp.Amount)
		if err != nil {
			return money.Amount{}, errs.ErrInvalid
		}
	}
	return sum, nil
}

// RawTransaction is a provider record delivered by a bank aggregator.
// Amount is the signed decimal string as sent by the provider; BookingDate
// is the provider's YYYY-MM-DD booking date.
type RawTransaction struct {
	ExternalID   string
	BookingDate  string
	Amount       string
	Description  string
	CategoryHint string
	Currency     string
}
