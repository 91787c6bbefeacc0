package search

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// Field weights for text relevance.
const (
	weightName        = 3.0
	weightFeature     = 2.0
	weightDescription = 1.0
	weightLocation    = 1.0

	maxTokenWeight = weightName + weightFeature + weightDescription + weightLocation
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "any": {}, "are": {}, "around": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "find": {}, "for": {}, "from": {}, "get": {}, "good": {},
	"hike": {}, "hikes": {}, "hiking": {}, "i": {}, "in": {}, "is": {}, "it": {},
	"like": {}, "looking": {}, "me": {}, "my": {}, "near": {}, "nice": {}, "of": {},
	"on": {}, "or": {}, "please": {}, "show": {}, "some": {}, "something": {},
	"than": {}, "that": {}, "the": {}, "to": {}, "trail": {}, "trails": {},
	"walk": {}, "want": {}, "we": {}, "where": {}, "with": {}, "within": {},
	"would": {}, "you": {},
}

// Tokenize lowercases text, splits on non-alphanumerics and drops stopwords,
// single characters and duplicates. Order of first occurrence is kept.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Relevance scores t against query tokens in [0, 1]. Each token earns the
// weights of the fields it occurs in; the sum is normalized by the best
// possible score. The matched tokens are returned in query order.
func Relevance(t trail.Trail, tokens []string) (float64, []string) {
	if len(tokens) == 0 {
		return 0, nil
	}
	name := strings.ToLower(t.Name)
	desc := strings.ToLower(t.Description)
	loc := strings.ToLower(strings.Join([]string{t.City, t.County, t.State, t.Region}, " "))

	var (
		total   float64
		matched []string
	)
	for _, tok := range tokens {
		var w float64
		if strings.Contains(name, tok) {
			w += weightName
		}
		if featureHit(t, tok) {
			w += weightFeature
		}
		if strings.Contains(desc, tok) {
			w += weightDescription
		}
		if strings.Contains(loc, tok) {
			w += weightLocation
		}
		if w > 0 {
			matched = append(matched, tok)
		}
		total += w
	}
	return total / (maxTokenWeight * float64(len(tokens))), matched
}

func featureHit(t trail.Trail, tok string) bool {
	canon := trail.Canonical(tok)
	for _, f := range t.Features {
		if f == canon || strings.Contains(f, tok) {
			return true
		}
	}
	return false
}
