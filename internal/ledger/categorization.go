package ledger

import (
	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
)

type categorizationKind uint8

const (
	catNone categorizationKind = iota
	catSingle
	catSplits
)

// Categorization is a closed variant over the three ways an entry can be
// categorized: not at all, a single category, or per-category amount splits.
// The variant makes "single category AND splits" unrepresentable.
type Categorization struct {
	kind   categorizationKind
	single uuid.UUID
	splits []CategorySplit
}

// NoCategory returns the uncategorized variant. It is also the zero value.
func NoCategory() Categorization { return Categorization{} }

// SingleCategory returns a categorization pointing at one category.
func SingleCategory(id uuid.UUID) Categorization {
	if id == uuid.Nil {
		return Categorization{}
	}
	return Categorization{kind: catSingle, single: id}
}

// SplitCategories returns a categorization dividing total across several
// categories. The split amounts must sum exactly to total.
func SplitCategories(total money.Amount, splits []CategorySplit) (Categorization, error) {
	if len(splits) == 0 {
		return Categorization{}, errs.ErrInvalid
	}
	sum, err := sumSplits(total.Curr().Code(), splits)
	if err != nil {
		return Categorization{}, err
	}
	cmp, err := sum.Cmp(total)
	if err != nil || cmp != 0 {
		return Categorization{}, errs.ErrSplitMismatch
	}
	cp := make([]CategorySplit, len(splits))
	copy(cp, splits)
	return Categorization{kind: catSplits, splits: cp}, nil
}

// IsNone reports whether the entry carries no category at all.
func (c Categorization) IsNone() bool { return c.kind == catNone }

// Single returns the single category id when that variant is set.
func (c Categorization) Single() (uuid.UUID, bool) {
	if c.kind != catSingle {
		return uuid.Nil, false
	}
	return c.single, true
}

// CategorySplits returns the per-category splits when that variant is set.
func (c Categorization) CategorySplits() ([]CategorySplit, bool) {
	if c.kind != catSplits {
		return nil, false
	}
	return c.splits, true
}

// CategoryIDs returns every category id the entry touches, in split order.
func (c Categorization) CategoryIDs() []uuid.UUID {
	switch c.kind {
	case catSingle:
		return []uuid.UUID{c.single}
	case catSplits:
		ids := make([]uuid.UUID, 0, len(c.splits))
		for _, sp := range c.splits {
			ids = append(ids, sp.CategoryID)
		}
		return ids
	default:
		return nil
	}
}
