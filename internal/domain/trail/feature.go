package trail

import (
	"regexp"
	"sort"
	"strings"
)

// vocabulary lists the canonical feature tokens found in the dataset.
var vocabulary = []string{
	"art", "bay", "beach", "birds", "bluff", "boardwalk", "bog", "boulders",
	"canal", "canyon", "castle ruins", "caves", "creek", "dunes", "education",
	"elevated", "fishing", "forest", "garden", "glacial", "granite", "hills",
	"historic", "island", "ladders", "lake", "lighthouse", "limestone",
	"mountain", "museum", "orv area", "overlook", "prairie", "quartzite",
	"rail-trail", "rare plants", "river", "rock formations", "sand",
	"sandstone", "shut-ins", "singletrack", "springs", "stairs", "swimming",
	"toboggan", "unique geology", "urban", "valleys", "waterfall", "wetland",
	"wilderness", "wildflowers", "wildlife", "zoo",
}

// aliases maps alternative spellings to a canonical token.
var aliases = map[string]string{
	"bluffs":          "bluff",
	"gardens":         "garden",
	"mountains":       "mountain",
	"waterfalls":      "waterfall",
	"falls":           "waterfall",
	"cascade":         "waterfall",
	"cascades":        "waterfall",
	"lakes":           "lake",
	"lakefront":       "lake",
	"rivers":          "river",
	"creeks":          "creek",
	"stream":          "creek",
	"streams":         "creek",
	"beaches":         "beach",
	"forests":         "forest",
	"woods":           "forest",
	"wooded":          "forest",
	"hill":            "hills",
	"hilly":           "hills",
	"dune":            "dunes",
	"canyons":         "canyon",
	"gorge":           "canyon",
	"overlooks":       "overlook",
	"lookout":         "overlook",
	"scenic overlook": "overlook",
	"cave":            "caves",
	"wildflower":      "wildflowers",
	"flowers":         "wildflowers",
	"bird":            "birds",
	"birding":         "birds",
	"bird watching":   "birds",
	"birdwatching":    "birds",
	"marsh":           "wetland",
	"wetlands":        "wetland",
	"swamp":           "wetland",
	"rail trail":      "rail-trail",
	"historical":      "historic",
	"history":         "historic",
	"boulder":         "boulders",
	"ladder":          "ladders",
	"stair":           "stairs",
	"lighthouses":     "lighthouse",
	"islands":         "island",
}

// Canonical maps a feature token to its canonical spelling.
// Unknown tokens are returned lowercased and trimmed.
func Canonical(token string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(token)), " ")
	if c, ok := aliases[norm]; ok {
		return c
	}
	return norm
}

// CanonicalFeatures canonicalizes, deduplicates and sorts a feature list.
func CanonicalFeatures(features []string) []string {
	if len(features) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(features))
	out := make([]string, 0, len(features))
	for _, f := range features {
		c := Canonical(f)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// IsKnownFeature reports whether token canonicalizes into the vocabulary.
func IsKnownFeature(token string) bool {
	c := Canonical(token)
	i := sort.SearchStrings(vocabulary, c)
	return i < len(vocabulary) && vocabulary[i] == c
}

// Vocabulary returns a copy of the canonical feature tokens.
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary)
	return out
}

type featurePattern struct {
	re        *regexp.Regexp
	canonical string
}

// featurePatterns matches vocabulary terms and aliases on word boundaries.
var featurePatterns = func() []featurePattern {
	terms := make(map[string]string, len(vocabulary)+len(aliases))
	for _, v := range vocabulary {
		terms[v] = v
	}
	for a, c := range aliases {
		terms[a] = c
	}
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	out := make([]featurePattern, 0, len(keys))
	for _, k := range keys {
		out = append(out, featurePattern{
			re:        regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`),
			canonical: terms[k],
		})
	}
	return out
}()

// ExtractFeatures returns the canonical vocabulary hits in lowercased text.
// Only vocabulary terms are returned, never arbitrary nouns.
func ExtractFeatures(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, p := range featurePatterns {
		if p.re.MatchString(lower) {
			hits = append(hits, p.canonical)
		}
	}
	return CanonicalFeatures(hits)
}
