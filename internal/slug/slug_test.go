package slug

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Eating Out":     "eating_out",
		"  Coffee Shops": "coffee_shops",
		"Rent/Mortgage":  "rent_mortgage",
		"groceries":      "groceries",
		"A  B   C":       "a_b_c",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSlug(t *testing.T) {
	for _, ok := range []string{"eating_out", "rent", "a1_b2"} {
		if !IsSlug(ok) {
			t.Errorf("IsSlug(%q) = false, want true", ok)
		}
	}
	for _, bad := range []string{"", "A", "has space", "x"} {
		if IsSlug(bad) {
			t.Errorf("IsSlug(%q) = true, want false", bad)
		}
	}
}
