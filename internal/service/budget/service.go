// Package budget evaluates spending against budget caps over recurring or
// fixed period windows.
package budget

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Status labels how far through a budget the spending is.
type Status string

const (
	StatusUnder Status = "under"
	// StatusApproaching flags spending at or past 90% of the cap.
	StatusApproaching Status = "approaching"
	StatusOver        Status = "over"
)

// approachingThreshold is the percentage at which a budget is flagged.
const approachingThreshold = 90.0

// Repo defines read operations needed by the service.
type Repo interface {
	BudgetByID(ctx context.Context, userID, budgetID uuid.UUID) (ledger.Budget, error)
	BudgetsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Budget, error)
	EntriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error)
	CategoriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error)
}

// Sharer resolves how much of an entry counts toward the user, including
// category-split apportionment.
type Sharer interface {
	UserShareByCategory(entry ledger.LedgerEntry, userID uuid.UUID) (map[uuid.UUID]money.Amount, error)
}

// Converter converts entry shares into the budget's currency.
type Converter interface {
	Convert(ctx context.Context, amount money.Amount, toCode string) money.Amount
}

// Progress is the evaluation of one budget as of a point in time.
type Progress struct {
	BudgetID    uuid.UUID
	Name        string
	Amount      money.Amount
	Spent       money.Amount
	Remaining   money.Amount
	Percentage  float64
	Status      Status
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Summary aggregates a user's budgets by status.
type Summary struct {
	Total       int
	Under       int
	Approaching int
	Over        int
	// Alerts lists budgets at or past the approaching threshold, worst
	// first.
	Alerts []Progress
}

// Service evaluates budgets against the user's share of spending.
type Service interface {
	Create(ctx context.Context, b ledger.Budget) (ledger.Budget, error)
	Evaluate(ctx context.Context, b ledger.Budget, asOf time.Time) (Progress, error)
	Progress(ctx context.Context, userID, budgetID uuid.UUID, asOf time.Time) (Progress, error)
	Summary(ctx context.Context, userID uuid.UUID, asOf time.Time) (Summary, error)
}

type service struct {
	repo      Repo
	writer    Writer
	sharer    Sharer
	converter Converter
}

func New(repo Repo, writer Writer, sharer Sharer, converter Converter) Service {
	return &service{repo: repo, writer: writer, sharer: sharer, converter: converter}
}

func (s *service) Create(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	if b.UserID == uuid.Nil || b.CategoryID == uuid.Nil {
		return ledger.Budget{}, errs.ErrInvalid
	}
	if b.Amount.IsNeg() {
		return ledger.Budget{}, errs.ErrInvalid
	}
	switch b.Period {
	case ledger.PeriodWeekly, ledger.PeriodMonthly, ledger.PeriodYearly:
	default:
		return ledger.Budget{}, errs.ErrInvalid
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.StartDate.IsZero() {
		b.StartDate = time.Now().UTC()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.Active = true
	return s.writer.CreateBudget(ctx, b)
}

// PeriodWindow returns the [start, end) window the budget covers at asOf.
// Recurring budgets roll: weekly windows are consecutive 7-day spans
// anchored at the start date, monthly and yearly windows follow the
// calendar month/year of asOf. Non-recurring budgets keep one fixed window
// of a single period from the start date.
func PeriodWindow(b ledger.Budget, asOf time.Time) (time.Time, time.Time) {
	start := b.StartDate
	if !b.Recurring {
		return start, periodEnd(start, b.Period)
	}
	switch b.Period {
	case ledger.PeriodWeekly:
		if asOf.Before(start) {
			return start, start.AddDate(0, 0, 7)
		}
		weeks := int(asOf.Sub(start).Hours() / (24 * 7))
		ws := start.AddDate(0, 0, weeks*7)
		return ws, ws.AddDate(0, 0, 7)
	case ledger.PeriodYearly:
		ys := time.Date(asOf.Year(), 1, 1, 0, 0, 0, 0, asOf.Location())
		return ys, ys.AddDate(1, 0, 0)
	default:
		ms := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
		return ms, ms.AddDate(0, 1, 0)
	}
}

func periodEnd(start time.Time, p ledger.Period) time.Time {
	switch p {
	case ledger.PeriodWeekly:
		return start.AddDate(0, 0, 7)
	case ledger.PeriodYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

func (s *service) Progress(ctx context.Context, userID, budgetID uuid.UUID, asOf time.Time) (Progress, error) {
	b, err := s.repo.BudgetByID(ctx, userID, budgetID)
	if err != nil {
		return Progress{}, err
	}
	return s.Evaluate(ctx, b, asOf)
}

func (s *service) Evaluate(ctx context.Context, b ledger.Budget, asOf time.Time) (Progress, error) {
	start, end := PeriodWindow(b, asOf)
	code := b.Amount.Curr().Code()

	targets := map[uuid.UUID]struct{}{b.CategoryID: {}}
	if b.IncludeSubcategories {
		categories, err := s.repo.CategoriesByUser(ctx, b.UserID)
		if err != nil {
			return Progress{}, err
		}
		for _, c := range categories {
			if c.ParentID != nil && *c.ParentID == b.CategoryID {
				targets[c.ID] = struct{}{}
			}
		}
	}

	entries, err := s.repo.EntriesByUser(ctx, b.UserID)
	if err != nil {
		return Progress{}, err
	}

	spent := ledger.ZeroAmount(code)
	for _, entry := range entries {
		if entry.Type != ledger.EntryTypeExpense || entry.Category.IsNone() {
			continue
		}
		if entry.Date.Before(start) || !entry.Date.Before(end) {
			continue
		}
		byCat, err := s.sharer.UserShareByCategory(entry, b.UserID)
		if err != nil {
			return Progress{}, err
		}
		for categoryID, amount := range byCat {
			if _, ok := targets[categoryID]; !ok {
				continue
			}
			spent, err = spent.Add(s.converter.Convert(ctx, amount, code))
			if err != nil {
				return Progress{}, err
			}
		}
	}

	remaining, err := b.Amount.Sub(spent)
	if err != nil {
		return Progress{}, err
	}

	var pct float64
	if !b.Amount.IsZero() {
		spentF, _ := spent.Float64()
		capF, _ := b.Amount.Float64()
		pct = spentF / capF * 100
	}

	// Overspend is decided on amounts, not the percentage, so a zero cap
	// with positive spend still reads as over.
	status := StatusUnder
	if cmp, err := spent.Cmp(b.Amount); err == nil && cmp > 0 {
		status = StatusOver
	} else if pct >= approachingThreshold {
		status = StatusApproaching
	}

	name := b.Name
	if name == "" {
		if categories, err := s.repo.CategoriesByUser(ctx, b.UserID); err == nil {
			for _, c := range categories {
				if c.ID == b.CategoryID {
					name = c.Name
					break
				}
			}
		}
	}

	return Progress{
		BudgetID:    b.ID,
		Name:        name,
		Amount:      b.Amount,
		Spent:       spent,
		Remaining:   remaining,
		Percentage:  pct,
		Status:      status,
		PeriodStart: start,
		PeriodEnd:   end,
	}, nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID, asOf time.Time) (Summary, error) {
	budgets, err := s.repo.BudgetsByUser(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, b := range budgets {
		if !b.Active {
			continue
		}
		p, err := s.Evaluate(ctx, b, asOf)
		if err != nil {
			return Summary{}, err
		}
		sum.Total++
		switch p.Status {
		case StatusOver:
			sum.Over++
		case StatusApproaching:
			sum.Approaching++
		default:
			sum.Under++
		}
		if p.Status != StatusUnder {
			sum.Alerts = append(sum.Alerts, p)
		}
	}
	sort.Slice(sum.Alerts, func(i, j int) bool {
		return sum.Alerts[i].Percentage > sum.Alerts[j].Percentage
	})
	return sum, nil
}
