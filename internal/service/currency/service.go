package currency

import (
	"context"
	"errors"
	"time"

	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/fintrack/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	CurrencyByCode(ctx context.Context, code string) (ledger.Currency, error)
	BaseCurrency(ctx context.Context) (ledger.Currency, error)
	ListCurrencies(ctx context.Context) ([]ledger.Currency, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	// UpdateCurrencyRates persists the given currencies as one atomic batch.
	UpdateCurrencyRates(ctx context.Context, currencies []ledger.Currency) error
}

// RateSource fetches exchange rates for a base currency from an external
// provider. The returned map holds rate-per-unit-of-base keyed by code.
type RateSource interface {
	Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// Service converts amounts between currencies through the base-currency
// pivot and refreshes stored rates from an external source.
type Service interface {
	// Convert returns amount expressed in the target currency. Conversion
	// fails soft: when either currency or the base currency is unknown, the
	// original amount is returned unchanged.
	Convert(ctx context.Context, amount money.Amount, toCode string) money.Amount
	// RefreshRates pulls fresh rates for the base currency and persists
	// them in one batch. It returns the number of currencies updated, or -1
	// with an error when the refresh aborted without writing anything.
	RefreshRates(ctx context.Context) (int, error)
	BaseCurrency(ctx context.Context) (ledger.Currency, error)
}

type service struct {
	repo   Repo
	writer Writer
	src    RateSource
	now    func() time.Time
}

// New constructs the currency service. src may be nil when rate refresh is
// not wired (conversion still works off stored rates).
func New(repo Repo, writer Writer, src RateSource) Service {
	return &service{repo: repo, writer: writer, src: src, now: time.Now}
}

func (s *service) BaseCurrency(ctx context.Context) (ledger.Currency, error) {
	return s.repo.BaseCurrency(ctx)
}

func (s *service) Convert(ctx context.Context, amount money.Amount, toCode string) money.Amount {
	fromCode := amount.Curr().Code()
	if fromCode == toCode {
		return amount
	}
	from, err := s.repo.CurrencyByCode(ctx, fromCode)
	if err != nil {
		return amount
	}
	to, err := s.repo.CurrencyByCode(ctx, toCode)
	if err != nil {
		return amount
	}
	base, err := s.repo.BaseCurrency(ctx)
	if err != nil {
		return amount
	}

	// Two-hop pivot: into the base currency, then out to the target.
	// RateToBase is the amount of base currency equal to 1 unit of the
	// currency, so the first hop multiplies and the second divides.
	d := amount.Decimal()
	if fromCode != base.Code {
		d, err = d.Mul(from.RateToBase)
		if err != nil {
			return amount
		}
	}
	if toCode != base.Code {
		if to.RateToBase.IsZero() {
			return amount
		}
		d, err = d.Quo(to.RateToBase)
		if err != nil {
			return amount
		}
	}
	out, err := ledger.AmountFromDecimal(toCode, d)
	if err != nil {
		return amount
	}
	return out
}

// RefreshRates aborts without partial writes on any fetch or parse failure.
func (s *service) RefreshRates(ctx context.Context) (int, error) {
	if s.src == nil {
		return -1, errors.New("rate source not configured")
	}
	base, err := s.repo.BaseCurrency(ctx)
	if err != nil {
		return -1, err
	}
	rates, err := s.src.Latest(ctx, base.Code)
	if err != nil {
		return -1, err
	}
	currencies, err := s.repo.ListCurrencies(ctx)
	if err != nil {
		return -1, err
	}

	now := s.now().UTC()
	updated := make([]ledger.Currency, 0, len(currencies))
	count := 0
	for _, c := range currencies {
		if c.Code == base.Code {
			c.RateToBase = decimal.One
			c.LastUpdated = now
			updated = append(updated, c)
			continue
		}
		rate, ok := rates[c.Code]
		if !ok || rate.IsZero() {
			continue
		}
		// The source reports units of c per unit of base; stored rates go
		// the other way.
		inv, err := decimal.One.Quo(rate)
		if err != nil {
			continue
		}
		c.RateToBase = inv
		c.LastUpdated = now
		updated = append(updated, c)
		count++
	}
	if err := s.writer.UpdateCurrencyRates(ctx, updated); err != nil {
		return -1, err
	}
	return count, nil
}
