// Package gazetteer canonicalizes free-text area names to Madurai ward keys.
//
// Citizen reports spell areas inconsistently ("anna nagar", "Annanagar",
// "Anna Ngar"), so resolution is fuzzy: exact match on a normalized form
// first, then bounded edit distance against ward names and known aliases.
package gazetteer

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Jegx07/namma-madurai-engine/internal/cache"
)

// ErrUnknownArea means the input resolves to no known ward. Surfaced to the
// caller; never silently corrected.
var ErrUnknownArea = errors.New("unknown_area")

// maxEditDistance bounds the fuzzy match so distinct wards never bleed into
// each other.
const maxEditDistance = 2

const resolveCacheTTL = time.Hour

// Ward is one canonical administrative area.
type Ward struct {
	Key      string
	Name     string
	Aliases  []string
	Capacity int // per-area open-report/alert capacity used by the CRI
}

// Wards is the fixed Madurai gazetteer.
var Wards = []Ward{
	{Key: "anna-nagar", Name: "Anna Nagar", Aliases: []string{"annanagar"}, Capacity: 40},
	{Key: "kk-nagar", Name: "KK Nagar", Aliases: []string{"k.k. nagar", "k k nagar"}, Capacity: 35},
	{Key: "simmakkal", Name: "Simmakkal", Aliases: []string{"simakkal"}, Capacity: 30},
	{Key: "goripalayam", Name: "Goripalayam", Capacity: 30},
	{Key: "villapuram", Name: "Villapuram", Capacity: 25},
	{Key: "anaiyur", Name: "Anaiyur", Capacity: 20},
	{Key: "thirunagar", Name: "Thirunagar", Aliases: []string{"tirunagar"}, Capacity: 25},
	{Key: "tirupparankundram", Name: "Tirupparankundram", Aliases: []string{"thiruparankundram"}, Capacity: 20},
	{Key: "sellur", Name: "Sellur", Capacity: 25},
	{Key: "arapalayam", Name: "Arapalayam", Capacity: 25},
	{Key: "mattuthavani", Name: "Mattuthavani", Aliases: []string{"mattuthavani bus stand"}, Capacity: 30},
	{Key: "teppakulam", Name: "Teppakulam", Aliases: []string{"vandiyur teppakulam"}, Capacity: 20},
	{Key: "pasumalai", Name: "Pasumalai", Capacity: 15},
	{Key: "avaniyapuram", Name: "Avaniyapuram", Capacity: 20},
	{Key: "vilangudi", Name: "Vilangudi", Capacity: 15},
	{Key: "othakadai", Name: "Othakadai", Capacity: 15},
}

// DefaultCapacity is used if a ward somehow lacks one.
const DefaultCapacity = 25

// Resolver maps free-text area strings to canonical wards.
type Resolver struct {
	byNormalized map[string]Ward
	byKey        map[string]Ward
	candidates   []string // sorted normalized forms for deterministic fuzzy ties
	cache        *cache.TTLCache[string, Ward]
}

// NewResolver indexes the fixed gazetteer.
func NewResolver() *Resolver {
	r := &Resolver{
		byNormalized: make(map[string]Ward),
		byKey:        make(map[string]Ward),
		cache:        cache.NewTTLCache[string, Ward](),
	}
	for _, ward := range Wards {
		r.byKey[ward.Key] = ward
		r.index(ward.Name, ward)
		r.index(ward.Key, ward)
		for _, alias := range ward.Aliases {
			r.index(alias, ward)
		}
	}
	r.candidates = make([]string, 0, len(r.byNormalized))
	for form := range r.byNormalized {
		r.candidates = append(r.candidates, form)
	}
	sort.Strings(r.candidates)
	return r
}

func (r *Resolver) index(form string, ward Ward) {
	normalized := Normalize(form)
	if normalized == "" {
		return
	}
	if _, exists := r.byNormalized[normalized]; !exists {
		r.byNormalized[normalized] = ward
	}
}

// Resolve canonicalizes an area string or fails with ErrUnknownArea.
func (r *Resolver) Resolve(area string) (Ward, error) {
	normalized := Normalize(area)
	if normalized == "" {
		return Ward{}, ErrUnknownArea
	}

	if ward, ok := r.cache.Get(normalized); ok {
		return ward, nil
	}
	if ward, ok := r.byNormalized[normalized]; ok {
		r.cache.Set(normalized, ward, resolveCacheTTL)
		return ward, nil
	}

	best := ""
	bestDistance := maxEditDistance + 1
	for _, candidate := range r.candidates {
		d := editDistance(normalized, candidate)
		if d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}
	if best == "" || bestDistance > maxEditDistance {
		return Ward{}, ErrUnknownArea
	}

	ward := r.byNormalized[best]
	r.cache.Set(normalized, ward, resolveCacheTTL)
	return ward, nil
}

// Lookup returns the ward for a canonical key.
func (r *Resolver) Lookup(key string) (Ward, bool) {
	ward, ok := r.byKey[key]
	return ward, ok
}

// All returns every ward in key order.
func (r *Resolver) All() []Ward {
	wards := make([]Ward, len(Wards))
	copy(wards, Wards)
	sort.Slice(wards, func(i, j int) bool { return wards[i].Key < wards[j].Key })
	return wards
}

// CapacityFor returns the per-area capacity constant.
func (r *Resolver) CapacityFor(key string) int {
	if ward, ok := r.byKey[key]; ok && ward.Capacity > 0 {
		return ward.Capacity
	}
	return DefaultCapacity
}

// Normalize lowercases, strips punctuation, and collapses whitespace.
func Normalize(value string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '.' || r == ',' || r == '\'':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// editDistance is the Levenshtein distance with two rolling rows.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
