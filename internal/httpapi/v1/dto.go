package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/budget"
	"github.com/tinoosan/fintrack/internal/service/splits"
)

// Entries

type postEntryRequest struct {
	UserID      uuid.UUID         `json:"user_id"`
	AccountID   *uuid.UUID        `json:"account_id,omitempty"`
	Description string            `json:"description"`
	AmountMinor int64             `json:"amount_minor"`
	Currency    string            `json:"currency"`
	Date        time.Time         `json:"date"`
	Type        ledger.EntryType  `json:"type"`
	PaidBy      *uuid.UUID        `json:"paid_by,omitempty"`
	SplitWith   []uuid.UUID       `json:"split_with,omitempty"`
	GroupID     *uuid.UUID        `json:"group_id,omitempty"`
	CategoryID  *uuid.UUID        `json:"category_id,omitempty"`
	Splits      []categorySplitDTO `json:"category_splits,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	// Learn feeds the manual categorization back into the rule set.
	Learn bool `json:"learn,omitempty"`
}

type categorySplitDTO struct {
	CategoryID  uuid.UUID `json:"category_id"`
	AmountMinor int64     `json:"amount_minor"`
	Note        string    `json:"note,omitempty"`
}

type entryResponse struct {
	ID                   uuid.UUID          `json:"id"`
	UserID               uuid.UUID          `json:"user_id"`
	AccountID            *uuid.UUID         `json:"account_id,omitempty"`
	Description          string             `json:"description"`
	AmountMinor          int64              `json:"amount_minor"`
	Amount               string             `json:"amount"`
	Currency             string             `json:"currency"`
	Date                 time.Time          `json:"date"`
	Type                 ledger.EntryType   `json:"type"`
	PaidBy               uuid.UUID          `json:"paid_by"`
	SplitWith            []uuid.UUID        `json:"split_with,omitempty"`
	GroupID              *uuid.UUID         `json:"group_id,omitempty"`
	DestinationAccountID *uuid.UUID         `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID         `json:"category_id,omitempty"`
	Splits               []categorySplitDTO `json:"category_splits,omitempty"`
	Source               ledger.ImportSource `json:"source"`
	ExternalID           string             `json:"external_id,omitempty"`
	Metadata             map[string]string  `json:"metadata,omitempty"`
}

func toEntryResponse(e ledger.LedgerEntry) entryResponse {
	minor, _ := e.Amount.MinorUnits()
	resp := entryResponse{
		ID:                   e.ID,
		UserID:               e.UserID,
		AccountID:            e.AccountID,
		Description:          e.Description,
		AmountMinor:          minor,
		Amount:               e.Amount.String(),
		Currency:             e.Amount.Curr().Code(),
		Date:                 e.Date,
		Type:                 e.Type,
		PaidBy:               e.PaidBy,
		SplitWith:            e.SplitWith,
		GroupID:              e.GroupID,
		DestinationAccountID: e.DestinationAccountID,
		Source:               e.Provenance.Source,
		ExternalID:           e.Provenance.ExternalID,
		Metadata:             e.Metadata,
	}
	if id, ok := e.Category.Single(); ok {
		resp.CategoryID = &id
	}
	if sps, ok := e.Category.CategorySplits(); ok {
		for _, sp := range sps {
			m, _ := sp.Amount.MinorUnits()
			resp.Splits = append(resp.Splits, categorySplitDTO{CategoryID: sp.CategoryID, AmountMinor: m, Note: sp.Note})
		}
	}
	return resp
}

type listEntriesQuery struct {
	UserID uuid.UUID
}

type listEntriesResponse struct {
	Items []entryResponse `json:"items"`
}

// Import

type importRequest struct {
	UserID       uuid.UUID           `json:"user_id"`
	AccountID    uuid.UUID           `json:"account_id"`
	Source       ledger.ImportSource `json:"source"`
	Transactions []rawTransactionDTO `json:"transactions"`
}

type rawTransactionDTO struct {
	ExternalID   string `json:"external_id"`
	BookingDate  string `json:"booking_date"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
	CategoryHint string `json:"category_hint,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// Classify

type classifyRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	Description string    `json:"description"`
}

type classifyResponse struct {
	CategoryID *uuid.UUID `json:"category_id"`
	Matched    bool       `json:"matched"`
}

// Currency

type convertQuery struct {
	AmountMinor int64
	From        string
	To          string
}

type convertResponse struct {
	AmountMinor int64  `json:"amount_minor"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

type currencyResponse struct {
	Code        string    `json:"code"`
	Name        string    `json:"name,omitempty"`
	Symbol      string    `json:"symbol,omitempty"`
	RateToBase  string    `json:"rate_to_base"`
	IsBase      bool      `json:"is_base"`
	LastUpdated time.Time `json:"last_updated"`
}

type refreshRatesResponse struct {
	Updated int `json:"updated"`
}

// Balances / settlements

type balanceResponse struct {
	CounterpartID   uuid.UUID `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name"`
	AmountMinor     int64     `json:"amount_minor"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
}

func toBalanceResponse(b splits.Balance) balanceResponse {
	minor, _ := b.Amount.MinorUnits()
	return balanceResponse{
		CounterpartID:   b.CounterpartID,
		CounterpartName: b.CounterpartName,
		AmountMinor:     minor,
		Amount:          b.Amount.String(),
		Currency:        b.Amount.Curr().Code(),
	}
}

type postSettlementRequest struct {
	PayerID     uuid.UUID  `json:"payer_id"`
	ReceiverID  uuid.UUID  `json:"receiver_id"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
}

type settlementResponse struct {
	ID          uuid.UUID `json:"id"`
	PayerID     uuid.UUID `json:"payer_id"`
	ReceiverID  uuid.UUID `json:"receiver_id"`
	AmountMinor int64     `json:"amount_minor"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
}

func toSettlementResponse(x ledger.Settlement) settlementResponse {
	minor, _ := x.Amount.MinorUnits()
	return settlementResponse{
		ID:          x.ID,
		PayerID:     x.PayerID,
		ReceiverID:  x.ReceiverID,
		AmountMinor: minor,
		Amount:      x.Amount.String(),
		Currency:    x.Amount.Curr().Code(),
		Date:        x.Date,
		Description: x.Description,
	}
}

// Budgets

type postBudgetRequest struct {
	UserID               uuid.UUID     `json:"user_id"`
	CategoryID           uuid.UUID     `json:"category_id"`
	Name                 string        `json:"name,omitempty"`
	AmountMinor          int64         `json:"amount_minor"`
	Currency             string        `json:"currency"`
	Period               ledger.Period `json:"period"`
	IncludeSubcategories bool          `json:"include_subcategories,omitempty"`
	StartDate            *time.Time    `json:"start_date,omitempty"`
	Recurring            *bool         `json:"recurring,omitempty"`
}

type budgetResponse struct {
	ID                   uuid.UUID     `json:"id"`
	UserID               uuid.UUID     `json:"user_id"`
	CategoryID           uuid.UUID     `json:"category_id"`
	Name                 string        `json:"name,omitempty"`
	AmountMinor          int64         `json:"amount_minor"`
	Currency             string        `json:"currency"`
	Period               ledger.Period `json:"period"`
	IncludeSubcategories bool          `json:"include_subcategories"`
	StartDate            time.Time     `json:"start_date"`
	Recurring            bool          `json:"recurring"`
	Active               bool          `json:"active"`
}

func toBudgetResponse(b ledger.Budget) budgetResponse {
	minor, _ := b.Amount.MinorUnits()
	return budgetResponse{
		ID:                   b.ID,
		UserID:               b.UserID,
		CategoryID:           b.CategoryID,
		Name:                 b.Name,
		AmountMinor:          minor,
		Currency:             b.Amount.Curr().Code(),
		Period:               b.Period,
		IncludeSubcategories: b.IncludeSubcategories,
		StartDate:            b.StartDate,
		Recurring:            b.Recurring,
		Active:               b.Active,
	}
}

type budgetProgressResponse struct {
	BudgetID       uuid.UUID     `json:"budget_id"`
	Name           string        `json:"name,omitempty"`
	AmountMinor    int64         `json:"amount_minor"`
	SpentMinor     int64         `json:"spent_minor"`
	RemainingMinor int64         `json:"remaining_minor"`
	Currency       string        `json:"currency"`
	Percentage     float64       `json:"percentage"`
	Status         budget.Status `json:"status"`
	PeriodStart    time.Time     `json:"period_start"`
	PeriodEnd      time.Time     `json:"period_end"`
}

func toBudgetProgressResponse(p budget.Progress) budgetProgressResponse {
	amountMinor, _ := p.Amount.MinorUnits()
	spentMinor, _ := p.Spent.MinorUnits()
	remainingMinor, _ := p.Remaining.MinorUnits()
	return budgetProgressResponse{
		BudgetID:       p.BudgetID,
		Name:           p.Name,
		AmountMinor:    amountMinor,
		SpentMinor:     spentMinor,
		RemainingMinor: remainingMinor,
		Currency:       p.Amount.Curr().Code(),
		Percentage:     p.Percentage,
		Status:         p.Status,
		PeriodStart:    p.PeriodStart,
		PeriodEnd:      p.PeriodEnd,
	}
}

type budgetSummaryResponse struct {
	Total       int                      `json:"total"`
	Under       int                      `json:"under"`
	Approaching int                      `json:"approaching"`
	Over        int                      `json:"over"`
	Alerts      []budgetProgressResponse `json:"alerts"`
}

// Accounts

type postAccountRequest struct {
	UserID   uuid.UUID          `json:"user_id"`
	Name     string             `json:"name"`
	Type     ledger.AccountType `json:"type"`
	Currency string             `json:"currency"`
	Metadata map[string]string  `json:"metadata,omitempty"`
}

type accountResponse struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	Name         string              `json:"name"`
	Type         ledger.AccountType  `json:"type"`
	Currency     string              `json:"currency"`
	BalanceMinor int64               `json:"balance_minor"`
	ImportSource ledger.ImportSource `json:"import_source"`
	ExternalID   string              `json:"external_id,omitempty"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
	Active       bool                `json:"active"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	minor, _ := a.Balance.MinorUnits()
	return accountResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		Name:         a.Name,
		Type:         a.Type,
		Currency:     a.Currency,
		BalanceMinor: minor,
		ImportSource: a.ImportSource,
		ExternalID:   a.ExternalID,
		Metadata:     a.Metadata,
		Active:       a.Active,
	}
}

// Categories

type postCategoryRequest struct {
	UserID   uuid.UUID  `json:"user_id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Icon     string     `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
}

type categoryResponse struct {
	ID       uuid.UUID  `json:"id"`
	UserID   uuid.UUID  `json:"user_id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Icon     string     `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
	System   bool       `json:"system"`
}

func toCategoryResponse(c ledger.Category) categoryResponse {
	return categoryResponse{
		ID: c.ID, UserID: c.UserID, Name: c.Name, ParentID: c.ParentID,
		Icon: c.Icon, Color: c.Color, System: c.System,
	}
}

// Rules

type postRuleRequest struct {
	UserID     uuid.UUID       `json:"user_id"`
	CategoryID uuid.UUID       `json:"category_id"`
	Keyword    string          `json:"keyword"`
	Kind       ledger.RuleKind `json:"kind,omitempty"`
	Priority   int             `json:"priority,omitempty"`
}

type ruleResponse struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	CategoryID uuid.UUID       `json:"category_id"`
	Keyword    string          `json:"keyword"`
	Kind       ledger.RuleKind `json:"kind"`
	Priority   int             `json:"priority"`
	MatchCount int             `json:"match_count"`
	Active     bool            `json:"active"`
}

func toRuleResponse(r ledger.CategoryRule) ruleResponse {
	return ruleResponse{
		ID: r.ID, UserID: r.UserID, CategoryID: r.CategoryID,
		Keyword: r.Keyword, Kind: r.Kind, Priority: r.Priority,
		MatchCount: r.MatchCount, Active: r.Active,
	}
}

// Reports

type categorySpendResponse struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
	AmountMinor int64     `json:"amount_minor"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
}

func toCategorySpendResponse(cs splits.CategorySpend) categorySpendResponse {
	minor, _ := cs.Amount.MinorUnits()
	return categorySpendResponse{
		CategoryID:  cs.CategoryID,
		Name:        cs.Name,
		Icon:        cs.Icon,
		Color:       cs.Color,
		AmountMinor: minor,
		Amount:      cs.Amount.String(),
		Currency:    cs.Amount.Curr().Code(),
	}
}
