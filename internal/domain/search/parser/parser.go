// Package parser extracts a filter from free text without a model.
// It backs the degraded search path and sanity-checks model-extracted filters.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/trailsearch/internal/domain/geo"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/trailsearch/internal/domain/trail"
)

// Smart defaults for vague wording.
const (
	ShortDistanceMiles = 3.0
	FlatElevationM     = 50.0
)

const (
	num      = `(\d+(?:\.\d+)?)`
	distUnit = `(miles?|mi|kilometers?|kilometres?|kms?)`
	elevUnit = `(feet|foot|ft|meters?|metres?|m)`
	upper    = `(?:under|less than|below|at most|up to|no more than|shorter than|max(?:imum)?(?: of)?)`
	lower    = `(?:over|more than|at least|longer than|above|min(?:imum)?(?: of)?)`
)

var (
	reRadius   = regexp.MustCompile(`\bwithin\s+` + num + `\s*` + distUnit + `\b`)
	reDistCap  = regexp.MustCompile(`\b` + upper + `\s+` + num + `\s*-?\s*` + distUnit + `\b`)
	reDistMin  = regexp.MustCompile(`\b` + lower + `\s+` + num + `\s*-?\s*` + distUnit + `\b`)
	reDistSpan = regexp.MustCompile(`\b` + num + `\s*(?:-|to)\s*` + num + `\s*` + distUnit + `\b`)
	reDistBare = regexp.MustCompile(`\b` + num + `\s*-?\s*` + distUnit + `\b`)
	reElevCap  = regexp.MustCompile(`\b` + upper + `\s+` + num + `\s*` + elevUnit + `\b`)
	reShort    = regexp.MustCompile(`\bshort\b`)
	reFlat     = regexp.MustCompile(`\bflat\b`)

	reDogsNo  = regexp.MustCompile(`\bno (?:dogs?|pets)\b|\bwithout (?:my |our |a |the )?dogs?\b|\b(?:dog|pet)[- ]free\b|\bnot (?:dog|pet)[- ]friendly\b|\bdogs? (?:are )?not allowed\b`)
	reDogsYes = regexp.MustCompile(`\b(?:dog|pet)[- ]friendly\b|\b(?:with|bring|take|walk) (?:my |our |a |the )?(?:dogs?|pup|puppy)\b|\bdogs? (?:are )?(?:allowed|welcome|ok)\b`)

	reNoFeeNoise = regexp.MustCompile(`\b(?:dog|pet|car|crowd)[- ]free\b`)
	reNoFee      = regexp.MustCompile(`\b(?:no|without(?: an?)?) (?:entry |admission )?fees?\b|\bfree\b`)
	reNoPermit   = regexp.MustCompile(`\b(?:no|without(?: an?)?) permits?\b`)
	reParking    = regexp.MustCompile(`\bparking\b`)
	reRestrooms  = regexp.MustCompile(`\b(?:restrooms?|bathrooms?|toilets?)\b`)
	reWater      = regexp.MustCompile(`\b(?:drinking water|water fountains?|water available)\b`)
	rePicnic     = regexp.MustCompile(`\bpicnic`)
	reCamping    = regexp.MustCompile(`\b(?:camping|campgrounds?|campsites?)\b`)
	reLakeState  = regexp.MustCompile(`\blake michigan\b`)
)

type keyword struct {
	re    *regexp.Regexp
	value string
}

func keywords(value string, patterns ...string) []keyword {
	out := make([]keyword, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, keyword{re: regexp.MustCompile(`\b` + p + `\b`), value: value})
	}
	return out
}

func concat(sets ...[]keyword) []keyword {
	var out []keyword
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

var (
	difficultyWords = concat(
		keywords(string(trail.Easy), "easy", "beginners?", "gentle", "family", "leisurely"),
		keywords(string(trail.Moderate), "moderate", "intermediate"),
		keywords(string(trail.Hard), "hard", "difficult", "challenging", "strenuous", "advanced", "tough"),
	)
	routeWords = concat(
		keywords(string(trail.Loop), "loop", "circuit"),
		keywords(string(trail.OutAndBack), "out[- ]and[- ]back", "there and back"),
	)
	accessWords = concat(
		keywords(string(trail.Wheelchair), "wheelchair"),
		keywords(string(trail.Stroller), "strollers?"),
	)
	surfaceWords = concat(
		keywords("paved", "paved"),
		keywords("gravel", "gravel"),
		keywords("dirt", "dirt"),
	)
	stateWords = concat(
		keywords("Illinois", "illinois"),
		keywords("Wisconsin", "wisconsin"),
		keywords("Michigan", "michigan"),
		keywords("Indiana", "indiana"),
		keywords("Iowa", "iowa"),
		keywords("Missouri", "missouri"),
		keywords("Minnesota", "minnesota"),
		keywords("Ohio", "ohio"),
	)
)

// firstMatch returns the value of the keyword that occurs earliest in text.
// Ties on position go to the keyword listed first.
func firstMatch(text string, words []keyword) (string, bool) {
	best, pos := "", -1
	for _, w := range words {
		loc := w.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if pos == -1 || loc[0] < pos {
			best, pos = w.value, loc[0]
		}
	}
	return best, pos >= 0
}

// Parser turns free text into a filter. It holds only read-only configuration
// and is safe for concurrent use.
type Parser struct {
	refs     []geo.ReferencePoint
	locality []keyword
}

// New creates a parser anchored on the given reference points.
func New(refs []geo.ReferencePoint) *Parser {
	p := &Parser{refs: append([]geo.ReferencePoint(nil), refs...)}
	for i, r := range p.refs {
		for _, k := range r.Keywords {
			p.locality = append(p.locality, keyword{
				re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(k)) + `\b`),
				value: strconv.Itoa(i),
			})
		}
	}
	return p
}

var std = New(geo.DefaultReferencePoints())

// Parse extracts a filter using the built-in reference points.
func Parse(text string) filter.Filter { return std.Parse(text) }

// Parse extracts a filter from text. It never fails: unrecognized input
// yields an empty filter.
func (p *Parser) Parse(text string) filter.Filter {
	f, _ := filter.New(p.Extract(text))
	return f
}

// Locality returns the reference point mentioned earliest in text.
func (p *Parser) Locality(text string) (geo.ReferencePoint, bool) {
	v, ok := firstMatch(strings.ToLower(text), p.locality)
	if !ok {
		return geo.ReferencePoint{}, false
	}
	i, _ := strconv.Atoi(v)
	return p.refs[i], true
}

// Extract returns the raw facets found in text, before validation.
func (p *Parser) Extract(text string) filter.Spec {
	s := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	var out filter.Spec
	if s == "" {
		return out
	}

	ref, hasRef := p.Locality(s)
	if m := reRadius.FindStringSubmatchIndex(s); m != nil {
		if hasRef {
			out.RadiusMiles = filter.Float(toMiles(s[m[2]:m[3]], s[m[4]:m[5]]))
		}
		s = blank(s, m[0], m[1])
	}
	if hasRef {
		if out.RadiusMiles == nil {
			out.RadiusMiles = filter.Float(ref.RadiusMiles)
		}
		out.CenterLat = filter.Float(ref.Center.Lat)
		out.CenterLng = filter.Float(ref.Center.Lng)
	}

	extractDistance(s, &out)
	if m := reElevCap.FindStringSubmatch(s); m != nil {
		out.ElevationCapMeters = filter.Float(toMeters(m[1], m[2]))
	} else if reFlat.MatchString(s) {
		out.ElevationCapMeters = filter.Float(FlatElevationM)
	}

	out.Difficulty, _ = firstMatch(s, difficultyWords)
	out.RouteType, _ = firstMatch(s, routeWords)
	out.Features = trail.ExtractFeatures(s)

	switch {
	case reDogsNo.MatchString(s):
		out.DogsAllowed = filter.Bool(false)
	case reDogsYes.MatchString(s):
		out.DogsAllowed = filter.Bool(true)
	}

	if reNoFee.MatchString(reNoFeeNoise.ReplaceAllString(s, " ")) {
		out.EntryFee = filter.Bool(false)
	}
	if reNoPermit.MatchString(s) {
		out.PermitRequired = filter.Bool(false)
	}
	for _, a := range []struct {
		re  *regexp.Regexp
		dst **bool
	}{
		{reParking, &out.ParkingAvailable},
		{reRestrooms, &out.Restrooms},
		{reWater, &out.WaterAvailable},
		{rePicnic, &out.PicnicAreas},
		{reCamping, &out.CampingAvailable},
	} {
		if a.re.MatchString(s) {
			*a.dst = filter.Bool(true)
		}
	}
	out.Accessibility, _ = firstMatch(s, accessWords)
	out.SurfaceType, _ = firstMatch(s, surfaceWords)
	out.State, _ = firstMatch(reLakeState.ReplaceAllString(s, " "), stateWords)

	return out
}

// Repair validates model-extracted facets. When the model supplied a radius
// without a center, the center is taken from a locality named in text.
func (p *Parser) Repair(s filter.Spec, text string) (filter.Filter, []filter.Repair) {
	if s.RadiusMiles != nil && (s.CenterLat == nil || s.CenterLng == nil) {
		if ref, ok := p.Locality(text); ok {
			s.CenterLat = filter.Float(ref.Center.Lat)
			s.CenterLng = filter.Float(ref.Center.Lng)
		}
	}
	return filter.New(s)
}

func extractDistance(s string, out *filter.Spec) {
	if m := reDistSpan.FindStringSubmatch(s); m != nil {
		lo, hi := toMiles(m[1], m[3]), toMiles(m[2], m[3])
		if lo > hi {
			lo, hi = hi, lo
		}
		out.DistanceMinMiles = filter.Float(lo)
		out.DistanceCapMiles = filter.Float(hi)
		return
	}
	capM := reDistCap.FindStringSubmatch(s)
	minM := reDistMin.FindStringSubmatch(s)
	if capM != nil {
		out.DistanceCapMiles = filter.Float(toMiles(capM[1], capM[2]))
	}
	if minM != nil {
		out.DistanceMinMiles = filter.Float(toMiles(minM[1], minM[2]))
	}
	if capM != nil || minM != nil {
		return
	}
	if m := reDistBare.FindStringSubmatch(s); m != nil {
		out.DistanceCapMiles = filter.Float(toMiles(m[1], m[2]))
		return
	}
	if reShort.MatchString(s) {
		out.DistanceCapMiles = filter.Float(ShortDistanceMiles)
	}
}

func toMiles(value, unit string) float64 {
	v, _ := strconv.ParseFloat(value, 64)
	if strings.HasPrefix(unit, "k") {
		return v * geo.KmToMiles
	}
	return v
}

func toMeters(value, unit string) float64 {
	v, _ := strconv.ParseFloat(value, 64)
	if strings.HasPrefix(unit, "f") {
		return v * geo.FeetToMeters
	}
	return v
}

// blank replaces s[i:j] with spaces so later patterns cannot match it.
func blank(s string, i, j int) string {
	return s[:i] + strings.Repeat(" ", j-i) + s[j:]
}
