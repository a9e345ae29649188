// Package splits computes who owes whom: per-entry equal shares, net
// balances between users with settlement adjustment, and the user-share
// apportionment used by budget and spending reports.
package splits

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	// SharedEntriesInvolving returns entries where the user is the payer or
	// appears in the participant list, restricted to entries with a
	// non-empty participant list.
	SharedEntriesInvolving(ctx context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error)
	// SettlementsInvolving returns settlements where the user is payer or
	// receiver.
	SettlementsInvolving(ctx context.Context, userID uuid.UUID) ([]ledger.Settlement, error)
	UserByID(ctx context.Context, id uuid.UUID) (ledger.User, error)
	EntriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error)
	CategoriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateSettlement(ctx context.Context, s ledger.Settlement) (ledger.Settlement, error)
}

// Converter is the slice of the currency service balances need: shares in
// different currencies net against each other in the base currency.
type Converter interface {
	Convert(ctx context.Context, amount money.Amount, toCode string) money.Amount
	BaseCurrency(ctx context.Context) (ledger.Currency, error)
}

// PayerShare is the payer's own portion of a shared entry.
type PayerShare struct {
	UserID uuid.UUID
	Amount money.Amount
}

// ParticipantShare is the portion one participant owes the payer.
type ParticipantShare struct {
	UserID uuid.UUID
	Amount money.Amount
}

// Breakdown is the full share assignment for one entry.
type Breakdown struct {
	Payer        PayerShare
	Participants []ParticipantShare
}

// Balance is the net position against one counterpart in the base currency.
// A positive amount means the counterpart owes the user.
type Balance struct {
	CounterpartID   uuid.UUID
	CounterpartName string
	Amount          money.Amount
}

// CategorySpend is one row of the category spending report.
type CategorySpend struct {
	CategoryID uuid.UUID
	Name       string
	Icon       string
	Color      string
	Amount     money.Amount
}

// Service computes split breakdowns and settlement-adjusted balances.
type Service interface {
	ComputeSplits(entry ledger.LedgerEntry) (Breakdown, error)
	Balances(ctx context.Context, userID uuid.UUID) ([]Balance, error)
	RecordSettlement(ctx context.Context, s ledger.Settlement) (ledger.Settlement, error)
	// CategorySpending aggregates the user's expense share per category for
	// the calendar month containing asOf.
	CategorySpending(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]CategorySpend, error)
	// UserShareByCategory distributes the user's share of one entry across
	// the entry's categories.
	UserShareByCategory(entry ledger.LedgerEntry, userID uuid.UUID) (map[uuid.UUID]money.Amount, error)
}

type service struct {
	repo      Repo
	writer    Writer
	converter Converter
}

func New(repo Repo, writer Writer, converter Converter) Service {
	return &service{repo: repo, writer: writer, converter: converter}
}

// ComputeSplits divides the entry equally over payer plus participants.
// The participant list is authoritative: a payer who also appears in it is
// deduplicated, and the payer's share is whatever remains after the
// participants take theirs, so the shares always sum to the entry amount.
func (s *service) ComputeSplits(entry ledger.LedgerEntry) (Breakdown, error) {
	participants := make([]uuid.UUID, 0, len(entry.SplitWith))
	for _, id := range entry.SplitWith {
		if id == entry.PaidBy || id == uuid.Nil {
			continue
		}
		participants = append(participants, id)
	}

	if len(participants) == 0 {
		return Breakdown{Payer: PayerShare{UserID: entry.PaidBy, Amount: entry.Amount}}, nil
	}

	shares, err := entry.Amount.Split(len(participants) + 1)
	if err != nil {
		return Breakdown{}, err
	}

	// The payer absorbs the first share, which is where Split puts any
	// indivisible remainder, so payer share = total minus participant shares.
	bd := Breakdown{
		Payer:        PayerShare{UserID: entry.PaidBy, Amount: shares[0]},
		Participants: make([]ParticipantShare, len(participants)),
	}
	for i, id := range participants {
		bd.Participants[i] = ParticipantShare{UserID: id, Amount: shares[i+1]}
	}
	return bd, nil
}

// ShareFor returns the given user's share of the entry, or a zero amount
// when the user is not involved.
func (s *service) shareFor(entry ledger.LedgerEntry, userID uuid.UUID) (money.Amount, error) {
	bd, err := s.ComputeSplits(entry)
	if err != nil {
		return money.Amount{}, err
	}
	if bd.Payer.UserID == userID {
		return bd.Payer.Amount, nil
	}
	for _, p := range bd.Participants {
		if p.UserID == userID {
			return p.Amount, nil
		}
	}
	return ledger.ZeroAmount(entry.Amount.Curr().Code()), nil
}

// Balances nets shared entries and settlements per counterpart. Entries the
// user paid for credit the balance with each participant's share; entries
// the user participates in debit it by the user's own share. Settlements the
// user paid increase what the counterpart owes; settlements the user
// received decrease it. Positions under 0.01 in absolute value are noise
// from rounding and are dropped.
func (s *service) Balances(ctx context.Context, userID uuid.UUID) ([]Balance, error) {
	base, err := s.converter.BaseCurrency(ctx)
	if err != nil {
		return nil, err
	}
	zero := ledger.ZeroAmount(base.Code)

	entries, err := s.repo.SharedEntriesInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]money.Amount)
	add := func(counterpart uuid.UUID, amount money.Amount, negate bool) error {
		converted := s.converter.Convert(ctx, amount, base.Code)
		if negate {
			converted = converted.Neg()
		}
		cur, ok := totals[counterpart]
		if !ok {
			cur = zero
		}
		sum, err := cur.Add(converted)
		if err != nil {
			return err
		}
		totals[counterpart] = sum
		return nil
	}

	for _, entry := range entries {
		if entry.Type == ledger.EntryTypeTransfer {
			continue
		}
		bd, err := s.ComputeSplits(entry)
		if err != nil {
			return nil, err
		}
		if entry.PaidBy == userID {
			for _, p := range bd.Participants {
				if err := add(p.UserID, p.Amount, false); err != nil {
					return nil, err
				}
			}
			continue
		}
		for _, p := range bd.Participants {
			if p.UserID == userID {
				if err := add(entry.PaidBy, p.Amount, true); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	settlements, err := s.repo.SettlementsInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, st := range settlements {
		switch userID {
		case st.PayerID:
			// Paying a settlement hands over cash, so the receiver now owes
			// the user that much more.
			if err := add(st.ReceiverID, st.Amount, false); err != nil {
				return nil, err
			}
		case st.ReceiverID:
			if err := add(st.PayerID, st.Amount, true); err != nil {
				return nil, err
			}
		}
	}

	threshold := money.MustNewAmount(base.Code, 1, 2)
	out := make([]Balance, 0, len(totals))
	for counterpart, amount := range totals {
		cmp, err := amount.Abs().Cmp(threshold)
		if err != nil || cmp < 0 {
			continue
		}
		name := "Unknown"
		if u, err := s.repo.UserByID(ctx, counterpart); err == nil {
			name = u.Name
		}
		out = append(out, Balance{CounterpartID: counterpart, CounterpartName: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CounterpartID.String() < out[j].CounterpartID.String()
	})
	return out, nil
}

func (s *service) RecordSettlement(ctx context.Context, st ledger.Settlement) (ledger.Settlement, error) {
	if st.PayerID == uuid.Nil || st.ReceiverID == uuid.Nil || st.PayerID == st.ReceiverID {
		return ledger.Settlement{}, errs.ErrInvalid
	}
	if st.Amount.IsZero() || st.Amount.IsNeg() {
		return ledger.Settlement{}, errs.ErrInvalid
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	if st.Date.IsZero() {
		st.Date = time.Now().UTC()
	}
	return s.writer.CreateSettlement(ctx, st)
}

// Apportion scales a category split down to the user's fraction of the
// whole entry: categoryAmount * (userShare / total). A zero total yields a
// zero amount.
func Apportion(categoryAmount, userShare, total money.Amount) (money.Amount, error) {
	if total.IsZero() {
		return ledger.ZeroAmount(categoryAmount.Curr().Code()), nil
	}
	ratio, err := userShare.Decimal().Quo(total.Decimal())
	if err != nil {
		return money.Amount{}, err
	}
	scaled, err := categoryAmount.Mul(ratio)
	if err != nil {
		return money.Amount{}, err
	}
	return scaled.RoundToCurr(), nil
}

// UserShareByCategory distributes the user's share of one entry across the
// entry's categories. Single-category entries put the whole share on that
// category; split entries apportion each split by the user's fraction.
func (s *service) UserShareByCategory(entry ledger.LedgerEntry, userID uuid.UUID) (map[uuid.UUID]money.Amount, error) {
	share, err := s.shareFor(entry, userID)
	if err != nil {
		return nil, err
	}
	if share.IsZero() {
		return nil, nil
	}

	out := make(map[uuid.UUID]money.Amount)
	if splitsList, ok := entry.Category.CategorySplits(); ok {
		for _, sp := range splitsList {
			portion, err := Apportion(sp.Amount, share, entry.Amount)
			if err != nil {
				return nil, err
			}
			if cur, ok := out[sp.CategoryID]; ok {
				portion, err = cur.Add(portion)
				if err != nil {
					return nil, err
				}
			}
			out[sp.CategoryID] = portion
		}
		return out, nil
	}
	if id, ok := entry.Category.Single(); ok {
		out[id] = share
	}
	return out, nil
}

func (s *service) CategorySpending(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]CategorySpend, error) {
	base, err := s.converter.BaseCurrency(ctx)
	if err != nil {
		return nil, err
	}
	zero := ledger.ZeroAmount(base.Code)

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	entries, err := s.repo.EntriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]money.Amount)
	for _, entry := range entries {
		if entry.Type != ledger.EntryTypeExpense || entry.Category.IsNone() {
			continue
		}
		if entry.Date.Before(monthStart) || !entry.Date.Before(monthEnd) {
			continue
		}
		byCat, err := s.UserShareByCategory(entry, userID)
		if err != nil {
			return nil, err
		}
		for categoryID, amount := range byCat {
			converted := s.converter.Convert(ctx, amount, base.Code)
			cur, ok := totals[categoryID]
			if !ok {
				cur = zero
			}
			sum, err := cur.Add(converted)
			if err != nil {
				return nil, err
			}
			totals[categoryID] = sum
		}
	}

	categories, err := s.repo.CategoriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]ledger.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	out := make([]CategorySpend, 0, len(totals))
	for categoryID, amount := range totals {
		row := CategorySpend{CategoryID: categoryID, Name: "Unknown", Amount: amount}
		if c, ok := byID[categoryID]; ok {
			row.Name = c.Name
			row.Icon = c.Icon
			row.Color = c.Color
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		cmp, err := out[i].Amount.Cmp(out[j].Amount)
		if err == nil && cmp != 0 {
			return cmp > 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
