package rules

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/slug"
)

// Repo defines read operations needed by the service.
type Repo interface {
	// ActiveRulesByUser returns active rules ordered by priority desc then
	// match count desc. The order is the stable tie-break for equal scores.
	ActiveRulesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error)
	RulesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.CategoryRule, error)
	CategoriesByUser(ctx context.Context, userID uuid.UUID) ([]ledger.Category, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateRule(ctx context.Context, rule ledger.CategoryRule) (ledger.CategoryRule, error)
	UpdateRule(ctx context.Context, rule ledger.CategoryRule) (ledger.CategoryRule, error)
	CreateCategory(ctx context.Context, c ledger.Category) (ledger.Category, error)
}

// Service classifies transaction descriptions against a user's rule set and
// maintains the rules from manual categorizations.
type Service interface {
	// Classify returns the best matching category id, or nil when no rule
	// matches. The winning rule's match count is incremented and persisted.
	Classify(ctx context.Context, userID uuid.UUID, description string) (*uuid.UUID, error)
	// Learn records a manual categorization: the most significant keyword
	// of the description is bound to the category, updating an existing
	// rule for that keyword when one exists.
	Learn(ctx context.Context, userID uuid.UUID, description string, categoryID uuid.UUID) (ledger.CategoryRule, error)
	// ResolveCategory finds a category id for a provider-supplied name,
	// trying classification of the description first when the name is
	// empty. With autoCreate set, an unknown name is created under the
	// user's "Other" category.
	ResolveCategory(ctx context.Context, userID uuid.UUID, name, description string, autoCreate bool) (*uuid.UUID, error)
	// SeedDefaults installs the starter categories and rules for a new
	// user. It is a no-op when the user already has rules.
	SeedDefaults(ctx context.Context, userID uuid.UUID) (int, error)
}

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
}

func New(repo Repo, writer Writer) Service {
	return &service{repo: repo, writer: writer, now: time.Now}
}

// scored pairs a rule with its computed match score.
type scored struct {
	rule  ledger.CategoryRule
	score int
}

func (s *service) Classify(ctx context.Context, userID uuid.UUID, description string) (*uuid.UUID, error) {
	description = strings.ToLower(strings.TrimSpace(description))
	if description == "" {
		return nil, nil
	}
	mappings, err := s.repo.ActiveRulesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var best *scored
	for _, rule := range mappings {
		if !Matches(rule, description) {
			continue
		}
		sc := Score(rule, description)
		// Strictly-greater keeps the first rule in load order on ties, so
		// priority then match count remain the effective tie-break.
		if best == nil || sc > best.score {
			best = &scored{rule: rule, score: sc}
		}
	}
	if best == nil {
		return nil, nil
	}

	winner := best.rule
	winner.MatchCount++
	if _, err := s.writer.UpdateRule(ctx, winner); err != nil {
		return nil, err
	}
	id := winner.CategoryID
	return &id, nil
}

// Matches reports whether a rule matches the (lowercased) description.
// Regex rules search case-insensitively; a pattern that does not compile
// degrades to plain substring containment.
func Matches(rule ledger.CategoryRule, description string) bool {
	if rule.Kind == ledger.RuleRegex {
		re, err := regexp.Compile("(?i)" + rule.Keyword)
		if err == nil {
			return re.MatchString(description)
		}
	}
	return strings.Contains(description, strings.ToLower(rule.Keyword))
}

// Score computes the match score for a rule against a description:
// priority*100 + matchCount*10 + len(keyword), plus a position bonus for
// literal rules (+50 at index 0, else max(0, 30-index)).
func Score(rule ledger.CategoryRule, description string) int {
	score := rule.Priority*100 + rule.MatchCount*10 + len(rule.Keyword)
	if rule.Kind != ledger.RuleRegex {
		switch idx := strings.Index(description, strings.ToLower(rule.Keyword)); {
		case idx == 0:
			score += 50
		case idx > 0:
			if bonus := 30 - idx; bonus > 0 {
				score += bonus
			}
		}
	}
	return score
}

func (s *service) Learn(ctx context.Context, userID uuid.UUID, description string, categoryID uuid.UUID) (ledger.CategoryRule, error) {
	if userID == uuid.Nil || categoryID == uuid.Nil {
		return ledger.CategoryRule{}, errs.ErrInvalid
	}
	keyword := ExtractKeyword(description)
	if keyword == "" {
		return ledger.CategoryRule{}, errs.ErrInvalid
	}

	existing, err := s.repo.RulesByUser(ctx, userID)
	if err != nil {
		return ledger.CategoryRule{}, err
	}
	for _, rule := range existing {
		if rule.Active && rule.Keyword == keyword {
			rule.CategoryID = categoryID
			rule.MatchCount++
			return s.writer.UpdateRule(ctx, rule)
		}
	}
	return s.writer.CreateRule(ctx, ledger.CategoryRule{
		ID:         uuid.New(),
		UserID:     userID,
		CategoryID: categoryID,
		Keyword:    keyword,
		Kind:       ledger.RuleLiteral,
		MatchCount: 1,
		Active:     true,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *service) ResolveCategory(ctx context.Context, userID uuid.UUID, name, description string, autoCreate bool) (*uuid.UUID, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		if description == "" {
			return nil, nil
		}
		return s.Classify(ctx, userID, description)
	}

	categories, err := s.repo.CategoriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Exact name match first; slugs make "Eating Out" == "eating_out".
	want := slug.Slugify(name)
	for _, c := range categories {
		if slug.Slugify(c.Name) == want {
			id := c.ID
			return &id, nil
		}
	}

	// Partial match: subcategories before parents, mirroring the lookup
	// order users expect when providers send coarse names.
	lower := strings.ToLower(name)
	for _, sub := range []bool{true, false} {
		for _, c := range categories {
			if (c.ParentID != nil) != sub {
				continue
			}
			if strings.Contains(strings.ToLower(c.Name), lower) {
				id := c.ID
				return &id, nil
			}
		}
	}

	if autoCreate {
		var parentID *uuid.UUID
		for _, c := range categories {
			if c.System && c.Name == "Other" {
				id := c.ID
				parentID = &id
				break
			}
		}
		if len(name) > 50 {
			name = name[:50]
		}
		created, err := s.writer.CreateCategory(ctx, ledger.Category{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      name,
			ParentID:  parentID,
			Icon:      "fa-tag",
			Color:     "#6c757d",
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		id := created.ID
		return &id, nil
	}

	// Last resort: classify off the description.
	if description != "" {
		return s.Classify(ctx, userID, description)
	}
	return nil, nil
}
