package match

import (
	"strings"
	"testing"

	"fogcatalog/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Köşe-Masa", "kose-masa"},
		{"KOSE  MASA", "kose masa"},
		{"café_crème.final", "cafe_creme final"},
		{"ABC-001", "abc-001"},
		{"  spaced   out  ", "spaced out"},
		{"!!!", ""},
		{"", ""},
		{"Şık İskemle", "sik iskemle"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindBestMatchExactSKU(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Name: "Oak Dining Table", SKU: "TBL-100"},
		{ID: "p2", Name: "ABC Chair", SKU: "ABC-001"},
		{ID: "p3", Name: "ABC 001 Special Edition Chair"},
	}

	tests := []struct {
		file string
		want string
	}{
		{"ABC-001", "p2"},               // exact SKU
		{"abc-001_front", "p2"},         // SKU prefix with separator
		{"studio shot abc-001 v2", "p2"}, // separator-delimited token
		{"TBL-100", "p1"},
	}
	for _, tt := range tests {
		if got := FindBestMatch(tt.file, products); got != tt.want {
			t.Errorf("FindBestMatch(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestFindBestMatchExactSKUBeatsEarlierFuzzy(t *testing.T) {
	// The fuzzy candidate comes first in the list; the exact SKU must still win.
	products := []models.Product{
		{ID: "fuzzy", Name: "Velvet Armchair Deluxe"},
		{ID: "exact", Name: "Something Else", SKU: "velvet-armchair"},
	}
	if got := FindBestMatch("velvet-armchair", products); got != "exact" {
		t.Errorf("got %q, want exact SKU winner", got)
	}
}

func TestFindBestMatchExactName(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Name: "Köşe Masa"},
		{ID: "p2", Name: "Köşe Masa Deluxe"},
	}
	if got := FindBestMatch("kose masa", products); got != "p1" {
		t.Errorf("got %q, want p1", got)
	}
}

func TestFindBestMatchDiacriticsAndSeparators(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Name: "Köşe Masası Ceviz"},
	}
	for _, file := range []string{"Köşe-Masası", "kose_masasi", "KOSE MASASI"} {
		if got := FindBestMatch(file, products); got != "p1" {
			t.Errorf("FindBestMatch(%q) = %q, want p1", file, got)
		}
	}
}

func TestFindBestMatchFuzzyPrefix(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Name: "Industrial Bookshelf Walnut"},
		{ID: "p2", Name: "Garden Bench"},
	}
	// "industrial-bookshelf" covers 2/3 name tokens with identical pairs
	if got := FindBestMatch("industrial-bookshelf", products); got != "p1" {
		t.Errorf("got %q, want p1", got)
	}
}

func TestFindBestMatchNoMatch(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Name: "Oak Dining Table", SKU: "TBL-100"},
		{ID: "p2", Name: "Velvet Armchair"},
	}
	for _, file := range []string{"totally-unrelated-xyz", "", "12345", "???"} {
		if got := FindBestMatch(file, products); got != "" {
			t.Errorf("FindBestMatch(%q) = %q, want no match", file, got)
		}
	}
}

func TestFindBestMatchFirstSeenWinsTies(t *testing.T) {
	products := []models.Product{
		{ID: "first", Name: "Classic Lounge Chair"},
		{ID: "second", Name: "Classic Lounge Chair"},
	}
	if got := FindBestMatch("classic-lounge-chair", products); got != "first" {
		t.Errorf("got %q, want first-seen candidate", got)
	}
}

func TestFindBestMatchShortTokensOnlyIdentical(t *testing.T) {
	m := New()
	if sim := m.tokenSimilarity("ab", "abc"); sim != 0 {
		t.Errorf("short prefix pair scored %v, want 0", sim)
	}
	if sim := m.tokenSimilarity("ab", "ab"); sim != 1 {
		t.Errorf("identical short tokens scored %v, want 1", sim)
	}
	if sim := m.tokenSimilarity("bookshelf", "bookshelves"); sim <= 0.8 {
		t.Errorf("prefix pair scored %v, want > 0.8", sim)
	}
}

func TestFindBestMatchOversizedSKUFallsBackToSubstring(t *testing.T) {
	sku := strings.Repeat("x", 150)
	products := []models.Product{{ID: "p1", Name: "Huge SKU", SKU: sku}}
	if got := FindBestMatch("prefix "+sku, products); got != "p1" {
		t.Errorf("oversized SKU substring fallback failed, got %q", got)
	}
}

func TestFindBestMatchRejectsLowTokenFraction(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Name: "Oak Table"},
	}
	// Only 1 of 4 filename tokens matches: fraction 0.25 < 0.5
	if got := FindBestMatch("oak barn winter festival", products); got != "" {
		t.Errorf("got %q, want rejection for low matched fraction", got)
	}
}
