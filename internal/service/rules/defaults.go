package rules

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/slug"
)

type defaultCategory struct {
	name  string
	icon  string
	color string
	// system marks categories protected from edit/delete.
	system        bool
	subcategories []defaultCategory
}

var defaultCategories = []defaultCategory{
	{name: "Housing", icon: "fa-home", color: "#3498db", subcategories: []defaultCategory{
		{name: "Rent/Mortgage", icon: "fa-building", color: "#3498db"},
		{name: "Utilities", icon: "fa-bolt", color: "#3498db"},
	}},
	{name: "Food", icon: "fa-utensils", color: "#e74c3c", subcategories: []defaultCategory{
		{name: "Groceries", icon: "fa-shopping-basket", color: "#e74c3c"},
		{name: "Restaurants", icon: "fa-hamburger", color: "#e74c3c"},
		{name: "Coffee Shops", icon: "fa-coffee", color: "#e74c3c"},
	}},
	{name: "Transportation", icon: "fa-car", color: "#2ecc71", subcategories: []defaultCategory{
		{name: "Gas", icon: "fa-gas-pump", color: "#2ecc71"},
		{name: "Public Transit", icon: "fa-bus", color: "#2ecc71"},
		{name: "Rideshare", icon: "fa-taxi", color: "#2ecc71"},
	}},
	{name: "Shopping", icon: "fa-shopping-cart", color: "#9b59b6", subcategories: []defaultCategory{
		{name: "Clothing", icon: "fa-tshirt", color: "#9b59b6"},
		{name: "Electronics", icon: "fa-laptop", color: "#9b59b6"},
	}},
	{name: "Entertainment", icon: "fa-film", color: "#f39c12", subcategories: []defaultCategory{
		{name: "Movies", icon: "fa-ticket-alt", color: "#f39c12"},
		{name: "Subscriptions", icon: "fa-play-circle", color: "#f39c12"},
	}},
	{name: "Health", icon: "fa-heartbeat", color: "#1abc9c"},
	{name: "Other", icon: "fa-question-circle", color: "#95a5a6", system: true},
}

// defaultRules holds (keyword, category name, priority) triples, a
// representative cut of the common merchants a fresh account should
// recognize out of the box. All default rules are literal.
var defaultRules = []struct {
	keyword  string
	category string
	priority int
}{
	{"grocery", "Groceries", 5},
	{"supermarket", "Groceries", 5},
	{"walmart", "Groceries", 3},
	{"costco", "Groceries", 5},
	{"trader joe", "Groceries", 5},
	{"whole foods", "Groceries", 5},
	{"restaurant", "Restaurants", 5},
	{"doordash", "Restaurants", 5},
	{"ubereats", "Restaurants", 5},
	{"mcdonald", "Restaurants", 5},
	{"pizza", "Restaurants", 4},
	{"starbucks", "Coffee Shops", 5},
	{"coffee", "Coffee Shops", 4},
	{"dunkin", "Coffee Shops", 5},
	{"shell", "Gas", 5},
	{"chevron", "Gas", 5},
	{"uber", "Rideshare", 4},
	{"lyft", "Rideshare", 5},
	{"rent", "Rent/Mortgage", 5},
	{"mortgage", "Rent/Mortgage", 5},
	{"electric", "Utilities", 5},
	{"internet", "Utilities", 5},
	{"amazon", "Shopping", 5},
	{"best buy", "Electronics", 5},
	{"netflix", "Subscriptions", 5},
	{"spotify", "Subscriptions", 5},
	{"cinema", "Movies", 5},
	{"pharmacy", "Health", 5},
	{"gym", "Health", 5},
}

// SeedDefaults creates the starter category tree and rule set for a new
// user. Users who already have rules are left untouched.
func (s *service) SeedDefaults(ctx context.Context, userID uuid.UUID) (int, error) {
	existing, err := s.repo.RulesByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	byName := make(map[string]uuid.UUID)
	categories, err := s.repo.CategoriesByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, c := range categories {
		byName[slug.Slugify(c.Name)] = c.ID
	}

	now := s.now().UTC()
	ensure := func(dc defaultCategory, parentID *uuid.UUID) (uuid.UUID, error) {
		if id, ok := byName[slug.Slugify(dc.name)]; ok {
			return id, nil
		}
		created, err := s.writer.CreateCategory(ctx, ledger.Category{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      dc.name,
			ParentID:  parentID,
			Icon:      dc.icon,
			Color:     dc.color,
			System:    dc.system,
			CreatedAt: now,
		})
		if err != nil {
			return uuid.Nil, err
		}
		byName[slug.Slugify(dc.name)] = created.ID
		return created.ID, nil
	}

	for _, dc := range defaultCategories {
		parentID, err := ensure(dc, nil)
		if err != nil {
			return 0, err
		}
		for _, sub := range dc.subcategories {
			pid := parentID
			if _, err := ensure(sub, &pid); err != nil {
				return 0, err
			}
		}
	}

	created := 0
	for _, dr := range defaultRules {
		categoryID, ok := byName[slug.Slugify(dr.category)]
		if !ok {
			continue
		}
		_, err := s.writer.CreateRule(ctx, ledger.CategoryRule{
			ID:         uuid.New(),
			UserID:     userID,
			CategoryID: categoryID,
			Keyword:    dr.keyword,
			Kind:       ledger.RuleLiteral,
			Priority:   dr.priority,
			Active:     true,
			CreatedAt:  now,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
