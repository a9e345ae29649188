package postgres

// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the HTTP/API and
// services.
//
// It is intentionally small and explicit. Migrations that create the
// expected schema live under db/migrations. This package focuses on mapping
// between the domain entities and SQL rows and running the necessary
// statements/transactions.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/meta"
)

// Store holds a pgx connection pool and implements the read/write
// interfaces used across the service layer. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies connectivity, used by readiness checks.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func amountFromMinor(code string, minor int64) money.Amount {
	a, err := money.NewAmountFromMinorUnits(strings.ToUpper(code), minor)
	if err != nil {
		return ledger.ZeroAmount(code)
	}
	return a
}

func minorUnits(a money.Amount) int64 {
	minor, _ := a.MinorUnits()
	return minor
}

// --- users ---

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (ledger.User, error) {
	var u ledger.User
	err := s.pool.QueryRow(ctx, `
        select id, name, email from users where id = $1
    `, id).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.User{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u ledger.User) (ledger.User, error) {
	_, err := s.pool.Exec(ctx, `
        insert into users (id, name, email) values ($1, $2, $3)
    `, u.ID, u.Name, u.Email)
	if isUniqueViolation(err) {
		return ledger.User{}, errs.ErrConflict
	}
	if err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

// --- accounts ---

const accountCols = `id, user_id, name, type, currency, balance_minor, import_source, external_id, metadata, last_sync, active`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	var balanceMinor int64
	var mdBytes []byte
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &balanceMinor,
		&a.ImportSource, &a.ExternalID, &mdBytes, &a.LastSync, &a.Active)
	if err != nil {
		return ledger.Account{}, err
	}
	a.Balance = amountFromMinor(a.Currency, balanceMinor)
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			a.Metadata = m
		}
	}
	return a, nil
}

func (s *Store) AccountByID(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
        select `+accountCols+` from accounts where id = $1 and user_id = $2
    `, accountID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, err
}

func (s *Store) AccountsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
        select `+accountCols+` from accounts where user_id = $1 order by name
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return ledger.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	_, err := s.pool.Exec(ctx, `
        insert into accounts (`+accountCols+`)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `, a.ID, a.UserID, a.Name, a.Type, strings.ToUpper(a.Currency), minorUnits(a.Balance),
		a.ImportSource, a.ExternalID, md, a.LastSync, a.Active)
	if isUniqueViolation(err) {
		return ledger.Account{}, errs.ErrConflict
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return ledger.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	ct, err := s.pool.Exec(ctx, `
        update accounts
        set name=$1, balance_minor=$2, metadata=$3, last_sync=$4, active=$5
        where id=$6 and user_id=$7
    `, a.Name, minorUnits(a.Balance), md, a.LastSync, a.Active, a.ID, a.UserID)
	if err != nil {
		return ledger.Account{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// --- categories ---

func (s *Store) CategoriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	rows, err := s.pool.Query(ctx, `
        select id, user_id, name, parent_id, icon, color, system, created_at
        from categories
        where user_id = $1
        order by name
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Category, 0)
	for rows.Next() {
		var c ledger.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.ParentID, &c.Icon, &c.Color, &c.System, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error) {
	_, err := s.pool.Exec(ctx, `
        insert into categories (id, user_id, name, parent_id, icon, color, system, created_at)
        values ($1,$2,$3,$4,$5,$6,$7,$8)
    `, c.ID, c.UserID, c.Name, c.ParentID, c.Icon, c.Color, c.System, c.CreatedAt)
	if isUniqueViolation(err) {
		return ledger.Category{}, errs.ErrDuplicate
	}
	if err != nil {
		return ledger.Category{}, err
	}
	return c, nil
}

// --- rules ---

const ruleCols = `id, user_id, category_id, keyword, kind, priority, match_count, active, created_at`

func (s *Store) rulesQuery(ctx context.Context, query string, userID uuid.UUID) ([]ledger.CategoryRule, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.CategoryRule, 0)
	for rows.Next() {
		var r ledger.CategoryRule
		if err := rows.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.Keyword, &r.Kind, &r.Priority, &r.MatchCount, &r.Active, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) RulesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error) {
	return s.rulesQuery(ctx, `
        select `+ruleCols+` from category_rules
        where user_id = $1
        order by priority desc, match_count desc, id
    `, userID)
}

// ActiveRulesByUser keeps the (priority desc, match_count desc) order the
// classifier's tie-break depends on.
func (s *Store) ActiveRulesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error) {
	return s.rulesQuery(ctx, `
        select `+ruleCols+` from category_rules
        where user_id = $1 and active
        order by priority desc, match_count desc, id
    `, userID)
}

func (s *Store) CreateRule(ctx context.Context, r ledger.CategoryRule) (ledger.CategoryRule, error) {
	_, err := s.pool.Exec(ctx, `
        insert into category_rules (`+ruleCols+`)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, r.ID, r.UserID, r.CategoryID, r.Keyword, r.Kind, r.Priority, r.MatchCount, r.Active, r.CreatedAt)
	if isUniqueViolation(err) {
		return ledger.CategoryRule{}, errs.ErrConflict
	}
	if err != nil {
		return ledger.CategoryRule{}, err
	}
	return r, nil
}

func (s *Store) UpdateRule(ctx context.Context, r ledger.CategoryRule) (ledger.CategoryRule, error) {
	ct, err := s.pool.Exec(ctx, `
        update category_rules
        set category_id=$1, keyword=$2, kind=$3, priority=$4, match_count=$5, active=$6
        where id=$7 and user_id=$8
    `, r.CategoryID, r.Keyword, r.Kind, r.Priority, r.MatchCount, r.Active, r.ID, r.UserID)
	if err != nil {
		return ledger.CategoryRule{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.CategoryRule{}, errs.ErrNotFound
	}
	return r, nil
}

// --- currencies ---

func scanCurrency(row pgx.Row) (ledger.Currency, error) {
	var c ledger.Currency
	var rate string
	err := row.Scan(&c.Code, &c.Name, &c.Symbol, &rate, &c.IsBase, &c.LastUpdated)
	if err != nil {
		return ledger.Currency{}, err
	}
	d, err := decimal.Parse(rate)
	if err != nil {
		return ledger.Currency{}, fmt.Errorf("parse rate for %s: %w", c.Code, err)
	}
	c.RateToBase = d
	return c, nil
}

func (s *Store) CurrencyByCode(ctx context.Context, code string) (ledger.Currency, error) {
	c, err := scanCurrency(s.pool.QueryRow(ctx, `
        select code, name, symbol, rate_to_base::text, is_base, last_updated
        from currencies where code = $1
    `, strings.ToUpper(code)))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Currency{}, errs.ErrNotFound
	}
	return c, err
}

func (s *Store) BaseCurrency(ctx context.Context) (ledger.Currency, error) {
	c, err := scanCurrency(s.pool.QueryRow(ctx, `
        select code, name, symbol, rate_to_base::text, is_base, last_updated
        from currencies where is_base limit 1
    `))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Currency{}, errs.ErrNoBaseCurrency
	}
	return c, err
}

func (s *Store) ListCurrencies(ctx context.Context) ([]ledger.Currency, error) {
	rows, err := s.pool.Query(ctx, `
        select code, name, symbol, rate_to_base::text, is_base, last_updated
        from currencies order by code
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Currency, 0)
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCurrencyRates upserts the batch inside one transaction so a refresh
// is all-or-nothing.
func (s *Store) UpdateCurrencyRates(ctx context.Context, currencies []ledger.Currency) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, c := range currencies {
		if _, err := tx.Exec(ctx, `
            insert into currencies (code, name, symbol, rate_to_base, is_base, last_updated)
            values ($1,$2,$3,$4::numeric,$5,$6)
            on conflict (code) do update
            set rate_to_base = excluded.rate_to_base, last_updated = excluded.last_updated
        `, c.Code, c.Name, c.Symbol, c.RateToBase.String(), c.IsBase, c.LastUpdated); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// --- entries ---

const entryCols = `id, user_id, account_id, description, amount_minor, currency, date, type, paid_by, group_id, destination_account_id, category_id, source, external_id, metadata`

type entryRow struct {
	entry      ledger.LedgerEntry
	categoryID *uuid.UUID
}

func scanEntry(row pgx.Row) (entryRow, error) {
	var e ledger.LedgerEntry
	var amountMinor int64
	var currency string
	var categoryID *uuid.UUID
	var mdBytes []byte
	err := row.Scan(&e.ID, &e.UserID, &e.AccountID, &e.Description, &amountMinor, &currency,
		&e.Date, &e.Type, &e.PaidBy, &e.GroupID, &e.DestinationAccountID, &categoryID,
		&e.Provenance.Source, &e.Provenance.ExternalID, &mdBytes)
	if err != nil {
		return entryRow{}, err
	}
	e.Amount = amountFromMinor(currency, amountMinor)
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			e.Metadata = m
		}
	}
	return entryRow{entry: e, categoryID: categoryID}, nil
}

// loadEntryAssociations fills participants and category splits for the
// given rows and resolves each entry's categorization variant.
func (s *Store) loadEntryAssociations(ctx context.Context, rows []entryRow) ([]ledger.LedgerEntry, error) {
	if len(rows) == 0 {
		return []ledger.LedgerEntry{}, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	idx := make(map[uuid.UUID]*entryRow, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].entry.ID)
		idx[rows[i].entry.ID] = &rows[i]
	}

	pRows, err := s.pool.Query(ctx, `
        select entry_id, user_id from entry_participants
        where entry_id = any($1) order by entry_id, position
    `, ids)
	if err != nil {
		return nil, err
	}
	defer pRows.Close()
	for pRows.Next() {
		var entryID, userID uuid.UUID
		if err := pRows.Scan(&entryID, &userID); err != nil {
			return nil, err
		}
		if r := idx[entryID]; r != nil {
			r.entry.SplitWith = append(r.entry.SplitWith, userID)
		}
	}
	if err := pRows.Err(); err != nil {
		return nil, err
	}

	splitsByEntry := make(map[uuid.UUID][]ledger.CategorySplit)
	sRows, err := s.pool.Query(ctx, `
        select entry_id, category_id, amount_minor, note from entry_splits
        where entry_id = any($1) order by entry_id, position
    `, ids)
	if err != nil {
		return nil, err
	}
	defer sRows.Close()
	for sRows.Next() {
		var entryID, categoryID uuid.UUID
		var amountMinor int64
		var note string
		if err := sRows.Scan(&entryID, &categoryID, &amountMinor, &note); err != nil {
			return nil, err
		}
		r := idx[entryID]
		if r == nil {
			continue
		}
		splitsByEntry[entryID] = append(splitsByEntry[entryID], ledger.CategorySplit{
			CategoryID: categoryID,
			Amount:     amountFromMinor(r.entry.Amount.Curr().Code(), amountMinor),
			Note:       note,
		})
	}
	if err := sRows.Err(); err != nil {
		return nil, err
	}

	out := make([]ledger.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		e := r.entry
		if splits, ok := splitsByEntry[e.ID]; ok {
			cat, err := ledger.SplitCategories(e.Amount, splits)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.ID, err)
			}
			e.Category = cat
		} else if r.categoryID != nil {
			e.Category = ledger.SingleCategory(*r.categoryID)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) entriesQuery(ctx context.Context, query string, args ...any) ([]ledger.LedgerEntry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	collected := make([]entryRow, 0)
	for rows.Next() {
		r, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		collected = append(collected, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.loadEntryAssociations(ctx, collected)
}

func (s *Store) EntriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error) {
	return s.entriesQuery(ctx, `
        select `+entryCols+` from entries
        where user_id = $1 order by date asc, id asc
    `, userID)
}

func (s *Store) EntryByID(ctx context.Context, userID, entryID uuid.UUID) (ledger.LedgerEntry, error) {
	entries, err := s.entriesQuery(ctx, `
        select `+entryCols+` from entries
        where id = $1 and user_id = $2
    `, entryID, userID)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	if len(entries) == 0 {
		return ledger.LedgerEntry{}, errs.ErrNotFound
	}
	return entries[0], nil
}

// SharedEntriesInvolving spans users: shared entries may live under the
// payer's user_id while the caller only appears as a participant.
func (s *Store) SharedEntriesInvolving(ctx context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error) {
	return s.entriesQuery(ctx, `
        select `+entryCols+` from entries e
        where exists (select 1 from entry_participants p where p.entry_id = e.id)
          and (e.paid_by = $1
               or exists (select 1 from entry_participants p where p.entry_id = e.id and p.user_id = $1))
        order by e.date asc, e.id asc
    `, userID)
}

func (s *Store) EntryExists(ctx context.Context, userID uuid.UUID, source ledger.ImportSource, externalID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
        select exists (
            select 1 from entries
            where user_id = $1 and source = $2 and external_id = $3 and external_id <> ''
        )
    `, userID, source, externalID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateEntry(ctx context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := insertEntry(ctx, tx, e); err != nil {
		return ledger.LedgerEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.LedgerEntry{}, err
	}
	return e, nil
}

// CreateEntriesBatch inserts the batch in one transaction; a duplicate
// provenance key anywhere in the batch rolls back the whole batch.
func (s *Store) CreateEntriesBatch(ctx context.Context, entries []ledger.LedgerEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, e := range entries {
		if err := insertEntry(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) UpdateEntry(ctx context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var categoryID *uuid.UUID
	if id, ok := e.Category.Single(); ok {
		categoryID = &id
	}
	md, _ := e.Metadata.MarshalStableJSON()
	ct, err := tx.Exec(ctx, `
        update entries
        set description=$1, amount_minor=$2, currency=$3, date=$4, type=$5,
            category_id=$6, metadata=$7
        where id=$8 and user_id=$9
    `, e.Description, minorUnits(e.Amount), e.Amount.Curr().Code(), e.Date, e.Type,
		categoryID, md, e.ID, e.UserID)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.LedgerEntry{}, errs.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `delete from entry_splits where entry_id = $1`, e.ID); err != nil {
		return ledger.LedgerEntry{}, err
	}
	if err := insertSplits(ctx, tx, e); err != nil {
		return ledger.LedgerEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.LedgerEntry{}, err
	}
	return e, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, e ledger.LedgerEntry) error {
	var categoryID *uuid.UUID
	if id, ok := e.Category.Single(); ok {
		categoryID = &id
	}
	md, _ := e.Metadata.MarshalStableJSON()
	_, err := tx.Exec(ctx, `
        insert into entries (`+entryCols+`)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    `, e.ID, e.UserID, e.AccountID, e.Description, minorUnits(e.Amount),
		e.Amount.Curr().Code(), e.Date, e.Type, e.PaidBy, e.GroupID,
		e.DestinationAccountID, categoryID, e.Provenance.Source, e.Provenance.ExternalID, md)
	if isUniqueViolation(err) {
		return errs.ErrDuplicate
	}
	if err != nil {
		return err
	}
	for i, userID := range e.SplitWith {
		if _, err := tx.Exec(ctx, `
            insert into entry_participants (entry_id, user_id, position) values ($1,$2,$3)
        `, e.ID, userID, i); err != nil {
			return err
		}
	}
	return insertSplits(ctx, tx, e)
}

func insertSplits(ctx context.Context, tx pgx.Tx, e ledger.LedgerEntry) error {
	splits, ok := e.Category.CategorySplits()
	if !ok {
		return nil
	}
	for i, sp := range splits {
		if _, err := tx.Exec(ctx, `
            insert into entry_splits (entry_id, category_id, amount_minor, note, position)
            values ($1,$2,$3,$4,$5)
        `, e.ID, sp.CategoryID, minorUnits(sp.Amount), sp.Note, i); err != nil {
			return fmt.Errorf("insert split: %w", err)
		}
	}
	return nil
}

// --- settlements ---

func (s *Store) CreateSettlement(ctx context.Context, x ledger.Settlement) (ledger.Settlement, error) {
	_, err := s.pool.Exec(ctx, `
        insert into settlements (id, payer_id, receiver_id, amount_minor, currency, date, description)
        values ($1,$2,$3,$4,$5,$6,$7)
    `, x.ID, x.PayerID, x.ReceiverID, minorUnits(x.Amount), x.Amount.Curr().Code(), x.Date, x.Description)
	if isUniqueViolation(err) {
		return ledger.Settlement{}, errs.ErrConflict
	}
	if err != nil {
		return ledger.Settlement{}, err
	}
	return x, nil
}

func (s *Store) SettlementsInvolving(ctx context.Context, userID uuid.UUID) ([]ledger.Settlement, error) {
	rows, err := s.pool.Query(ctx, `
        select id, payer_id, receiver_id, amount_minor, currency, date, description
        from settlements
        where payer_id = $1 or receiver_id = $1
        order by date asc, id asc
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Settlement, 0)
	for rows.Next() {
		var x ledger.Settlement
		var amountMinor int64
		var currency string
		if err := rows.Scan(&x.ID, &x.PayerID, &x.ReceiverID, &amountMinor, &currency, &x.Date, &x.Description); err != nil {
			return nil, err
		}
		x.Amount = amountFromMinor(currency, amountMinor)
		out = append(out, x)
	}
	return out, rows.Err()
}

// --- budgets ---

const budgetCols = `id, user_id, category_id, name, amount_minor, currency, period, include_subcategories, start_date, recurring, active, created_at`

func scanBudget(row pgx.Row) (ledger.Budget, error) {
	var b ledger.Budget
	var amountMinor int64
	var currency string
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Name, &amountMinor, &currency,
		&b.Period, &b.IncludeSubcategories, &b.StartDate, &b.Recurring, &b.Active, &b.CreatedAt)
	if err != nil {
		return ledger.Budget{}, err
	}
	b.Amount = amountFromMinor(currency, amountMinor)
	return b, nil
}

func (s *Store) BudgetByID(ctx context.Context, userID, budgetID uuid.UUID) (ledger.Budget, error) {
	b, err := scanBudget(s.pool.QueryRow(ctx, `
        select `+budgetCols+` from budgets where id = $1 and user_id = $2
    `, budgetID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Budget{}, errs.ErrNotFound
	}
	return b, err
}

func (s *Store) BudgetsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Budget, error) {
	rows, err := s.pool.Query(ctx, `
        select `+budgetCols+` from budgets where user_id = $1 order by created_at, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) CreateBudget(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	_, err := s.pool.Exec(ctx, `
        insert into budgets (`+budgetCols+`)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    `, b.ID, b.UserID, b.CategoryID, b.Name, minorUnits(b.Amount), b.Amount.Curr().Code(),
		b.Period, b.IncludeSubcategories, b.StartDate, b.Recurring, b.Active, b.CreatedAt)
	if isUniqueViolation(err) {
		return ledger.Budget{}, errs.ErrConflict
	}
	if err != nil {
		return ledger.Budget{}, err
	}
	return b, nil
}

// isUniqueViolation reports a postgres 23505 unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
