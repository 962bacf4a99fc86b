package languages

import (
	"context"
	"sort"
	"strings"
)

// Region is a site edition. Codes are lowercase, e.g. "en-gb".
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

const (
	BritishEnglish  = "en-gb"
	AmericanEnglish = "en-us"
)

var regionMap = map[string]string{
	BritishEnglish:  "English (UK)",
	AmericanEnglish: "English (US)",
}

// linkVariants maps a region to the key used in per-region link objects
// such as {"uk": "...", "us": "..."}.
var linkVariants = map[string]string{
	BritishEnglish:  "uk",
	AmericanEnglish: "us",
}

func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func RegionName(code string) string {
	return regionMap[Normalize(code)]
}

func IsSupported(code string) bool {
	_, ok := regionMap[Normalize(code)]
	return ok
}

// LinkVariant returns the link-object key for a region, "uk" when unknown.
func LinkVariant(code string) string {
	if v, ok := linkVariants[Normalize(code)]; ok {
		return v
	}
	return "uk"
}

// ForCountry picks the edition for an ISO country code. Only the US gets
// the American edition.
func ForCountry(isoCode string) string {
	if strings.EqualFold(isoCode, "US") {
		return AmericanEnglish
	}
	return BritishEnglish
}

func Regions() []Region {
	regions := make([]Region, 0, len(regionMap))
	for code, name := range regionMap {
		regions = append(regions, Region{Code: code, Name: name})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Code < regions[j].Code })
	return regions
}

type contextKey struct{}

func ContextWithRegion(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, contextKey{}, Normalize(code))
}

// RegionFromContext returns the request's region, or BritishEnglish.
func RegionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKey{}).(string); ok && v != "" {
		return v
	}
	return BritishEnglish
}
