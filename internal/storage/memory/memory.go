package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing
// us to plug in a real DB later.
import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// provKey is the import deduplication key.
type provKey struct {
	Source     ledger.ImportSource
	ExternalID string
}

// entryKey tracks ordering for entries per user: sorted asc by (Date, ID).
type entryKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of the repository+writer interfaces
// used by the services and the API. It is guarded by an RWMutex for
// concurrent reads/writes.
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]ledger.User
	accounts    map[uuid.UUID]ledger.Account
	categories  map[uuid.UUID]ledger.Category
	rules       map[uuid.UUID]ledger.CategoryRule
	currencies  map[string]ledger.Currency
	budgets     map[uuid.UUID]ledger.Budget
	settlements map[uuid.UUID]ledger.Settlement
	entries     map[uuid.UUID]*ledger.LedgerEntry
	// Per-user sorted index of entries for ordered scans.
	entryKeysByUser map[uuid.UUID][]entryKey
	// Import dedup: userID -> (source, external id) -> entryID.
	entryProv map[uuid.UUID]map[provKey]uuid.UUID
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:           make(map[uuid.UUID]ledger.User),
		accounts:        make(map[uuid.UUID]ledger.Account),
		categories:      make(map[uuid.UUID]ledger.Category),
		rules:           make(map[uuid.UUID]ledger.CategoryRule),
		currencies:      make(map[string]ledger.Currency),
		budgets:         make(map[uuid.UUID]ledger.Budget),
		settlements:     make(map[uuid.UUID]ledger.Settlement),
		entries:         make(map[uuid.UUID]*ledger.LedgerEntry),
		entryKeysByUser: make(map[uuid.UUID][]entryKey),
		entryProv:       make(map[uuid.UUID]map[provKey]uuid.UUID),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u ledger.User)            { s.mu.Lock(); s.users[u.ID] = u; s.mu.Unlock() }
func (s *Store) SeedAccount(a ledger.Account)      { s.mu.Lock(); s.accounts[a.ID] = a; s.mu.Unlock() }
func (s *Store) SeedCategory(c ledger.Category)    { s.mu.Lock(); s.categories[c.ID] = c; s.mu.Unlock() }
func (s *Store) SeedRule(r ledger.CategoryRule)    { s.mu.Lock(); s.rules[r.ID] = r; s.mu.Unlock() }
func (s *Store) SeedCurrency(c ledger.Currency)    { s.mu.Lock(); s.currencies[c.Code] = c; s.mu.Unlock() }
func (s *Store) SeedBudget(b ledger.Budget)        { s.mu.Lock(); s.budgets[b.ID] = b; s.mu.Unlock() }
func (s *Store) SeedSettlement(x ledger.Settlement) {
	s.mu.Lock()
	s.settlements[x.ID] = x
	s.mu.Unlock()
}

func (s *Store) SeedEntry(e ledger.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putEntryLocked(e)
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]ledger.User{}
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.categories = map[uuid.UUID]ledger.Category{}
	s.rules = map[uuid.UUID]ledger.CategoryRule{}
	s.currencies = map[string]ledger.Currency{}
	s.budgets = map[uuid.UUID]ledger.Budget{}
	s.settlements = map[uuid.UUID]ledger.Settlement{}
	s.entries = map[uuid.UUID]*ledger.LedgerEntry{}
	s.entryKeysByUser = map[uuid.UUID][]entryKey{}
	s.entryProv = map[uuid.UUID]map[provKey]uuid.UUID{}
	s.mu.Unlock()
}

// Ping reports store readiness; the memory store is always ready.
func (s *Store) Ping(_ context.Context) error { return nil }

// --- users ---

func (s *Store) UserByID(_ context.Context, id uuid.UUID) (ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return ledger.User{}, errs.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateUser(_ context.Context, u ledger.User) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return ledger.User{}, errs.ErrConflict
	}
	s.users[u.ID] = u
	return u, nil
}

// --- accounts ---

func (s *Store) AccountByID(_ context.Context, userID, accountID uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *Store) AccountsByUser(_ context.Context, userID uuid.UUID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return ledger.Account{}, errs.ErrConflict
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[a.ID]
	if !ok || cur.UserID != a.UserID {
		return ledger.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// --- categories ---

func (s *Store) CategoriesByUser(_ context.Context, userID uuid.UUID) ([]ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c ledger.Category) (ledger.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return ledger.Category{}, errs.ErrConflict
	}
	for _, existing := range s.categories {
		if existing.UserID == c.UserID && strings.EqualFold(existing.Name, c.Name) {
			return ledger.Category{}, errs.ErrDuplicate
		}
	}
	s.categories[c.ID] = c
	return c, nil
}

// --- rules ---

func (s *Store) RulesByUser(_ context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.CategoryRule, 0)
	for _, r := range s.rules {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortRules(out)
	return out, nil
}

// ActiveRulesByUser returns active rules ordered priority desc then match
// count desc, the stable tie-break order the classifier relies on.
func (s *Store) ActiveRulesByUser(_ context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.CategoryRule, 0)
	for _, r := range s.rules {
		if r.UserID == userID && r.Active {
			out = append(out, r)
		}
	}
	sortRules(out)
	return out, nil
}

func sortRules(rules []ledger.CategoryRule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		if rules[i].MatchCount != rules[j].MatchCount {
			return rules[i].MatchCount > rules[j].MatchCount
		}
		return rules[i].ID.String() < rules[j].ID.String()
	})
}

func (s *Store) CreateRule(_ context.Context, r ledger.CategoryRule) (ledger.CategoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.ID]; ok {
		return ledger.CategoryRule{}, errs.ErrConflict
	}
	s.rules[r.ID] = r
	return r, nil
}

func (s *Store) UpdateRule(_ context.Context, r ledger.CategoryRule) (ledger.CategoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rules[r.ID]
	if !ok || cur.UserID != r.UserID {
		return ledger.CategoryRule{}, errs.ErrNotFound
	}
	s.rules[r.ID] = r
	return r, nil
}

// --- currencies ---

func (s *Store) CurrencyByCode(_ context.Context, code string) (ledger.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[strings.ToUpper(code)]
	if !ok {
		return ledger.Currency{}, errs.ErrNotFound
	}
	return c, nil
}

func (s *Store) BaseCurrency(_ context.Context) (ledger.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.currencies {
		if c.IsBase {
			return c, nil
		}
	}
	return ledger.Currency{}, errs.ErrNoBaseCurrency
}

func (s *Store) ListCurrencies(_ context.Context) ([]ledger.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// UpdateCurrencyRates replaces the stored rows for the given codes in one
// critical section, so readers never observe a half-applied refresh.
func (s *Store) UpdateCurrencyRates(_ context.Context, currencies []ledger.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range currencies {
		s.currencies[c.Code] = c
	}
	return nil
}

// --- entries ---

func (s *Store) putEntryLocked(e ledger.LedgerEntry) {
	cp := e
	s.entries[cp.ID] = &cp
	s.insertEntryIndexLocked(cp.UserID, entryKey{Date: cp.Date, ID: cp.ID})
	if cp.Provenance.ExternalID != "" {
		byProv, ok := s.entryProv[cp.UserID]
		if !ok {
			byProv = make(map[provKey]uuid.UUID)
			s.entryProv[cp.UserID] = byProv
		}
		byProv[provKey{Source: cp.Provenance.Source, ExternalID: cp.Provenance.ExternalID}] = cp.ID
	}
}

func (s *Store) insertEntryIndexLocked(userID uuid.UUID, k entryKey) {
	keys := s.entryKeysByUser[userID]
	i := sort.Search(len(keys), func(i int) bool {
		if !keys[i].Date.Equal(k.Date) {
			return keys[i].Date.After(k.Date)
		}
		return keys[i].ID.String() >= k.ID.String()
	})
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeysByUser[userID] = keys
}

func (s *Store) removeEntryIndexLocked(userID uuid.UUID, k entryKey) {
	keys := s.entryKeysByUser[userID]
	for i, have := range keys {
		if have.ID == k.ID {
			s.entryKeysByUser[userID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

func (s *Store) CreateEntry(_ context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; ok {
		return ledger.LedgerEntry{}, errs.ErrConflict
	}
	s.putEntryLocked(e)
	return e, nil
}

// CreateEntriesBatch inserts a batch under one lock. A provenance collision
// inside the batch fails the whole batch, mirroring the transactional
// postgres path.
func (s *Store) CreateEntriesBatch(_ context.Context, entries []ledger.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, ok := s.entries[e.ID]; ok {
			return errs.ErrConflict
		}
		if e.Provenance.ExternalID != "" {
			key := provKey{Source: e.Provenance.Source, ExternalID: e.Provenance.ExternalID}
			if _, ok := s.entryProv[e.UserID][key]; ok {
				return errs.ErrDuplicate
			}
		}
	}
	for _, e := range entries {
		s.putEntryLocked(e)
	}
	return nil
}

func (s *Store) UpdateEntry(_ context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[e.ID]
	if !ok || cur.UserID != e.UserID {
		return ledger.LedgerEntry{}, errs.ErrNotFound
	}

	// Keep the date index and the provenance map in step with the update.
	// The duplicate check runs first so a rejected update mutates nothing.
	if cur.Provenance != e.Provenance && e.Provenance.ExternalID != "" {
		key := provKey{Source: e.Provenance.Source, ExternalID: e.Provenance.ExternalID}
		if owner, ok := s.entryProv[e.UserID][key]; ok && owner != e.ID {
			return ledger.LedgerEntry{}, errs.ErrDuplicate
		}
	}
	if !cur.Date.Equal(e.Date) {
		s.removeEntryIndexLocked(cur.UserID, entryKey{Date: cur.Date, ID: cur.ID})
		s.insertEntryIndexLocked(e.UserID, entryKey{Date: e.Date, ID: e.ID})
	}
	if cur.Provenance != e.Provenance {
		if cur.Provenance.ExternalID != "" {
			delete(s.entryProv[cur.UserID], provKey{Source: cur.Provenance.Source, ExternalID: cur.Provenance.ExternalID})
		}
		if e.Provenance.ExternalID != "" {
			byProv, ok := s.entryProv[e.UserID]
			if !ok {
				byProv = make(map[provKey]uuid.UUID)
				s.entryProv[e.UserID] = byProv
			}
			byProv[provKey{Source: e.Provenance.Source, ExternalID: e.Provenance.ExternalID}] = e.ID
		}
	}

	cp := e
	s.entries[e.ID] = &cp
	return e, nil
}

func (s *Store) EntryByID(_ context.Context, userID, entryID uuid.UUID) (ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok || e.UserID != userID {
		return ledger.LedgerEntry{}, errs.ErrNotFound
	}
	return *e, nil
}

func (s *Store) EntriesByUser(_ context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.entryKeysByUser[userID]
	out := make([]ledger.LedgerEntry, 0, len(keys))
	for _, k := range keys {
		if e, ok := s.entries[k.ID]; ok && e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *Store) EntryExists(_ context.Context, userID uuid.UUID, source ledger.ImportSource, externalID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entryProv[userID][provKey{Source: source, ExternalID: externalID}]
	return ok, nil
}

// SharedEntriesInvolving returns entries with participants where the user
// is payer or participant. Scans all entries: shared entries may be paid by
// another user and so live under that user's index.
func (s *Store) SharedEntriesInvolving(_ context.Context, userID uuid.UUID) ([]ledger.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.LedgerEntry, 0)
	for _, e := range s.entries {
		if len(e.SplitWith) == 0 {
			continue
		}
		if e.PaidBy == userID {
			out = append(out, *e)
			continue
		}
		for _, id := range e.SplitWith {
			if id == userID {
				out = append(out, *e)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// --- settlements ---

func (s *Store) CreateSettlement(_ context.Context, x ledger.Settlement) (ledger.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settlements[x.ID]; ok {
		return ledger.Settlement{}, errs.ErrConflict
	}
	s.settlements[x.ID] = x
	return x, nil
}

func (s *Store) SettlementsInvolving(_ context.Context, userID uuid.UUID) ([]ledger.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Settlement, 0)
	for _, x := range s.settlements {
		if x.PayerID == userID || x.ReceiverID == userID {
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// --- budgets ---

func (s *Store) BudgetByID(_ context.Context, userID, budgetID uuid.UUID) (ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return ledger.Budget{}, errs.ErrNotFound
	}
	return b, nil
}

func (s *Store) BudgetsByUser(_ context.Context, userID uuid.UUID) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b ledger.Budget) (ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; ok {
		return ledger.Budget{}, errs.ErrConflict
	}
	s.budgets[b.ID] = b
	return b, nil
}
