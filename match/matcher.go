// Package match scores uploaded image filenames against product names and
// SKUs so bulk uploads can be attached to the right product without manual
// assignment.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fogcatalog/models"
)

// maxSKURegexLen bounds the token-delimited SKU regex. SKUs longer than this
// (normalized) fall back to a plain substring test to avoid pathological
// regex construction on hostile input.
const maxSKURegexLen = 100

// Matcher holds the similarity thresholds. The defaults were tuned
// empirically; keep them configurable instead of re-deriving them.
type Matcher struct {
	// MinScore is the overall acceptance threshold for the best candidate
	MinScore float64
	// TokenMatchThreshold is the per-pair similarity needed to count a
	// filename token as matched
	TokenMatchThreshold float64
	// MinTokenFraction rejects candidates matching fewer than this fraction
	// of filename tokens
	MinTokenFraction float64
	// MinPrefixLen is the minimum token length for prefix comparison;
	// shorter tokens only match when identical
	MinPrefixLen int
	// StrongFirstToken is the first-token similarity that triggers the
	// short-filename boost
	StrongFirstToken float64
}

// New returns a Matcher with the default thresholds
func New() Matcher {
	return Matcher{
		MinScore:            0.7,
		TokenMatchThreshold: 0.8,
		MinTokenFraction:    0.5,
		MinPrefixLen:        4,
		StrongFirstToken:    0.9,
	}
}

// FindBestMatch matches a filename (without extension) against products using
// the default thresholds. Returns the matched product id, or "" when nothing
// qualifies.
func FindBestMatch(fileBaseName string, products []models.Product) string {
	return New().FindBestMatch(fileBaseName, products)
}

// FindBestMatch returns the id of the best-matching product, or "". Exact SKU
// and exact name matches win over fuzzy scoring regardless of product order;
// among fuzzy candidates the first product reaching the top score wins.
func (m Matcher) FindBestMatch(fileBaseName string, products []models.Product) string {
	nfile := Normalize(fileBaseName)
	if nfile == "" {
		return ""
	}

	// Exact shortcuts first, over all candidates, so an exact SKU elsewhere
	// in the list cannot lose to an earlier fuzzy match.
	for i := range products {
		p := &products[i]
		if sku := Normalize(p.SKU); sku != "" && skuMatches(nfile, sku) {
			return p.ID
		}
		if name := Normalize(p.Name); name != "" && nfile == name {
			return p.ID
		}
	}

	fileTokens := tokenize(nfile)
	if len(fileTokens) == 0 {
		return ""
	}

	bestID := ""
	bestScore := 0.0
	for i := range products {
		nameTokens := tokenize(Normalize(products[i].Name))
		if len(nameTokens) == 0 {
			continue
		}
		score := m.score(fileTokens, nameTokens)
		if score >= m.MinScore && score > bestScore {
			bestScore = score
			bestID = products[i].ID
		}
	}
	return bestID
}

// skuMatches reports whether the normalized filename equals the SKU, starts
// with it followed by a separator, or contains it as a separator-delimited
// token.
func skuMatches(nfile, sku string) bool {
	if nfile == sku {
		return true
	}
	for _, sep := range []string{"-", "_", " "} {
		if strings.HasPrefix(nfile, sku+sep) {
			return true
		}
	}
	if len(sku) > maxSKURegexLen {
		return strings.Contains(nfile, sku)
	}
	re, err := regexp.Compile(`(^|[\s_-])` + regexp.QuoteMeta(sku) + `([\s_-]|$)`)
	if err != nil {
		return strings.Contains(nfile, sku)
	}
	return re.MatchString(nfile)
}

// score greedily pairs each filename token with the best unused product-name
// token and aggregates fraction-matched times average similarity, with the
// short-filename first-token boost.
func (m Matcher) score(fileTokens, nameTokens []string) float64 {
	used := make([]bool, len(nameTokens))
	matched := 0
	simSum := 0.0

	for _, ft := range fileTokens {
		best := -1
		bestSim := 0.0
		for j, nt := range nameTokens {
			if used[j] {
				continue
			}
			if sim := m.tokenSimilarity(ft, nt); sim > bestSim {
				bestSim = sim
				best = j
			}
		}
		if best >= 0 && bestSim >= m.TokenMatchThreshold {
			used[best] = true
			matched++
			simSum += bestSim
		}
	}

	score := 0.0
	if matched > 0 {
		fraction := float64(matched) / float64(len(fileTokens))
		if fraction >= m.MinTokenFraction {
			score = fraction * (simSum / float64(matched))
		}
	}

	// Short filenames rarely carry every name token; a strong first token is
	// treated as a match on its own.
	if len(fileTokens) <= 2 {
		first := m.tokenSimilarity(fileTokens[0], nameTokens[0])
		if first >= m.StrongFirstToken {
			boost := 0.8
			if first == 1 {
				boost = 0.9
			}
			if boost > score {
				score = boost
			}
		}
	}

	return score
}

// tokenSimilarity gives identical tokens 1, prefix pairs of length >=
// MinPrefixLen shorter/longer, everything else 0
func (m Matcher) tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < m.MinPrefixLen || len(b) < m.MinPrefixLen {
		return 0
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.HasPrefix(longer, shorter) {
		return float64(len(shorter)) / float64(len(longer))
	}
	return 0
}

// stripMarks removes combining marks after NFD decomposition, folding
// accented characters to their base form
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics, replaces punctuation outside the
// separator allowlist with spaces and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	// Dotless i is a standalone letter, not a combining mark
	s = strings.ReplaceAll(s, "ı", "i")
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenize splits a normalized string on separators and drops tokens that are
// shorter than two characters or purely numeric
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	tokens := fields[:0]
	for _, tok := range fields {
		if len(tok) < 2 || isNumeric(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
