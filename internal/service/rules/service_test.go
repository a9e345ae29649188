package rules

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

func seedRule(store *memory.Store, userID, categoryID uuid.UUID, keyword string, kind ledger.RuleKind, priority, matchCount int) ledger.CategoryRule {
	r := ledger.CategoryRule{
		ID:         uuid.New(),
		UserID:     userID,
		CategoryID: categoryID,
		Keyword:    keyword,
		Kind:       kind,
		Priority:   priority,
		MatchCount: matchCount,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	store.SeedRule(r)
	return r
}

func TestClassify_PriorityBeatsMatchCount(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	coffeeShops := uuid.New()
	misc := uuid.New()

	// "coffee" has racked up matches but "starbucks" carries the higher
	// priority and must win.
	seedRule(store, userID, misc, "coffee", ledger.RuleLiteral, 1, 40)
	seedRule(store, userID, coffeeShops, "starbucks", ledger.RuleLiteral, 5, 0)

	svc := New(store, store)
	got, err := svc.Classify(context.Background(), userID, "STARBUCKS COFFEE #123")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got == nil || *got != coffeeShops {
		t.Fatalf("expected coffee shops category, got %v", got)
	}
}

func TestClassify_IncrementsWinnerMatchCount(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	categoryID := uuid.New()
	rule := seedRule(store, userID, categoryID, "grocery", ledger.RuleLiteral, 5, 0)

	svc := New(store, store)
	for i := 0; i < 2; i++ {
		if _, err := svc.Classify(context.Background(), userID, "Local Grocery Store"); err != nil {
			t.Fatalf("classify %d: %v", i, err)
		}
	}

	after, err := store.RulesByUser(context.Background(), userID)
	if err != nil || len(after) != 1 {
		t.Fatalf("rules: %v %d", err, len(after))
	}
	if after[0].ID != rule.ID || after[0].MatchCount != 2 {
		t.Fatalf("expected match count 2, got %d", after[0].MatchCount)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	seedRule(store, userID, uuid.New(), "grocery", ledger.RuleLiteral, 5, 0)

	svc := New(store, store)
	got, err := svc.Classify(context.Background(), userID, "Parking Garage")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no match, got %v", got)
	}

	got, err = svc.Classify(context.Background(), userID, "   ")
	if err != nil || got != nil {
		t.Fatalf("blank description must not match: %v %v", got, err)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	// Same keyword twice: the higher priority rule must win every time.
	seedRule(store, userID, first, "uber", ledger.RuleLiteral, 5, 0)
	seedRule(store, userID, second, "uber", ledger.RuleLiteral, 3, 0)

	svc := New(store, store)
	for i := 0; i < 5; i++ {
		got, err := svc.Classify(context.Background(), userID, "Uber Trip")
		if err != nil || got == nil || *got != first {
			t.Fatalf("run %d: expected stable winner, got %v err=%v", i, got, err)
		}
	}
}

func TestMatches_RegexAndFallback(t *testing.T) {
	re := ledger.CategoryRule{Keyword: `amazon( prime)?`, Kind: ledger.RuleRegex}
	if !Matches(re, "amazon prime video") {
		t.Fatal("regex should match")
	}
	if !Matches(re, "order from amazon") {
		t.Fatal("regex should match plain amazon")
	}

	// Broken pattern degrades to substring containment.
	broken := ledger.CategoryRule{Keyword: `shell(`, Kind: ledger.RuleRegex}
	if Matches(broken, "shell station") {
		t.Fatal("broken regex should fall back to literal, which does not contain 'shell('")
	}
	if !Matches(broken, "paid at shell( pump") {
		t.Fatal("fallback substring should match")
	}
}

func TestScore_PositionBonus(t *testing.T) {
	rule := ledger.CategoryRule{Keyword: "netflix", Kind: ledger.RuleLiteral, Priority: 2, MatchCount: 3}
	base := 2*100 + 3*10 + len("netflix")

	if got := Score(rule, "netflix monthly"); got != base+50 {
		t.Fatalf("prefix bonus: got %d want %d", got, base+50)
	}
	if got := Score(rule, "xx netflix"); got != base+27 {
		t.Fatalf("position bonus: got %d want %d", got, base+27)
	}
	long := "a very long merchant descriptor that mentions netflix late"
	if got := Score(rule, long); got != base {
		t.Fatalf("far match gets no bonus: got %d want %d", got, base)
	}

	regex := ledger.CategoryRule{Keyword: "netflix", Kind: ledger.RuleRegex, Priority: 2, MatchCount: 3}
	if got := Score(regex, "netflix monthly"); got != base {
		t.Fatalf("regex rules get no position bonus: got %d want %d", got, base)
	}
}

func TestLearn(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	categoryID := uuid.New()
	svc := New(store, store)

	created, err := svc.Learn(context.Background(), userID, "Monthly Netflix Subscription", categoryID)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if created.Keyword != "subscription" || created.MatchCount != 1 {
		t.Fatalf("unexpected rule: %+v", created)
	}

	// Learning the same keyword again reassigns the category and bumps the
	// count instead of creating a duplicate.
	other := uuid.New()
	updated, err := svc.Learn(context.Background(), userID, "Annual Subscription", other)
	if err != nil {
		t.Fatalf("learn again: %v", err)
	}
	if updated.ID != created.ID || updated.CategoryID != other || updated.MatchCount != 2 {
		t.Fatalf("expected update of existing rule: %+v", updated)
	}

	all, _ := store.RulesByUser(context.Background(), userID)
	if len(all) != 1 {
		t.Fatalf("expected single rule, got %d", len(all))
	}
}

func TestExtractKeyword(t *testing.T) {
	cases := map[string]string{
		"Monthly Netflix Subscription": "subscription",
		"Payment to the Store":         "payment",
		"AT of TO":                     "at", // everything filtered, longest original wins
		"":                             "",
		"   ":                          "",
	}
	for in, want := range cases {
		if got := ExtractKeyword(in); got != want {
			t.Errorf("ExtractKeyword(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveCategory(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	food := ledger.Category{ID: uuid.New(), UserID: userID, Name: "Food", CreatedAt: time.Now().UTC()}
	foodID := food.ID
	eatingOut := ledger.Category{ID: uuid.New(), UserID: userID, Name: "Eating Out", ParentID: &foodID, CreatedAt: time.Now().UTC()}
	other := ledger.Category{ID: uuid.New(), UserID: userID, Name: "Other", System: true, CreatedAt: time.Now().UTC()}
	store.SeedCategory(food)
	store.SeedCategory(eatingOut)
	store.SeedCategory(other)

	svc := New(store, store)
	ctx := context.Background()

	got, err := svc.ResolveCategory(ctx, userID, "eating_out", "", false)
	if err != nil || got == nil || *got != eatingOut.ID {
		t.Fatalf("slug-exact match failed: %v %v", got, err)
	}

	// Partial match prefers subcategories over parents.
	got, err = svc.ResolveCategory(ctx, userID, "Eating", "", false)
	if err != nil || got == nil || *got != eatingOut.ID {
		t.Fatalf("partial match failed: %v %v", got, err)
	}

	// Unknown name with autoCreate lands under the system Other category.
	got, err = svc.ResolveCategory(ctx, userID, "Pet Supplies", "", true)
	if err != nil || got == nil {
		t.Fatalf("auto-create failed: %v %v", got, err)
	}
	cats, _ := store.CategoriesByUser(ctx, userID)
	var createdParent *uuid.UUID
	for _, c := range cats {
		if c.Name == "Pet Supplies" {
			createdParent = c.ParentID
		}
	}
	if createdParent == nil || *createdParent != other.ID {
		t.Fatalf("created category should hang under Other")
	}

	// Unknown name without autoCreate falls back to classification.
	got, err = svc.ResolveCategory(ctx, userID, "Nonexistent", "", false)
	if err != nil || got != nil {
		t.Fatalf("expected nil for unknown name: %v %v", got, err)
	}
}

func TestSeedDefaults(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	svc := New(store, store)
	ctx := context.Background()

	created, err := svc.SeedDefaults(ctx, userID)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if created == 0 {
		t.Fatal("expected rules to be created")
	}

	cats, _ := store.CategoriesByUser(ctx, userID)
	var hasOther, hasGroceries bool
	for _, c := range cats {
		if c.Name == "Other" && c.System {
			hasOther = true
		}
		if c.Name == "Groceries" && c.ParentID != nil {
			hasGroceries = true
		}
	}
	if !hasOther || !hasGroceries {
		t.Fatalf("default tree incomplete: other=%v groceries=%v", hasOther, hasGroceries)
	}

	// Re-seeding is a no-op for users who already have rules.
	again, err := svc.SeedDefaults(ctx, userID)
	if err != nil || again != 0 {
		t.Fatalf("expected no-op reseed, got %d %v", again, err)
	}
}
