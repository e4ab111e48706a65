package engine

import (
	"regexp"

	"github.com/clearplan/planrag/internal/storage"
	"github.com/clearplan/planrag/pkg/types"
)

// boroughPatterns maps each borough to the place names and postcode
// districts that imply it. Neighbourhood names cover the areas each
// council actually administers.
var boroughPatterns = map[types.Borough][]*regexp.Regexp{
	types.BoroughCamden: compilePatterns(
		`\bcamden\b`, `\bhampstead\b`, `\bbelsize\b`, `\bprimrose hill\b`,
		`\bkentish town\b`, `\bgospel oak\b`, `\bholborn\b`, `\bbloomsbury\b`,
		`\bking'?s cross\b`, `\bwest hampstead\b`, `\bswiss cottage\b`,
		`\bnw3\b`, `\bnw5\b`, `\bnw1\b`, `\bwc1\b`,
	),
	types.BoroughBarnet: compilePatterns(
		`\bbarnet\b`, `\bfinchley\b`, `\bgolders green\b`, `\bhendon\b`,
		`\bmill hill\b`, `\bedgware\b`, `\btotteridge\b`, `\bwhetstone\b`,
		`\bfriern barnet\b`,
		`\bn3\b`, `\bn2\b`, `\bnw4\b`, `\bnw7\b`, `\bnw11\b`,
	),
	types.BoroughWestminster: compilePatterns(
		`\bwestminster\b`, `\bmarylebone\b`, `\bmayfair\b`, `\bsoho\b`,
		`\bfitzrovia\b`, `\bpimlico\b`, `\bbelgravia\b`, `\bpadding?ton\b`,
		`\bbayswater\b`,
		`\bw1\b`, `\bw2\b`, `\bsw1\b`, `\bnw8\b`,
	),
	types.BoroughBrent: compilePatterns(
		`\bbrent\b`, `\bwembley\b`, `\bwillesden\b`, `\bkilburn\b`,
		`\bneasden\b`, `\bkingsbury\b`, `\bharlesden\b`, `\balperton\b`,
		`\bstonebridge\b`,
		`\bnw10\b`, `\bnw2\b`, `\bha0\b`, `\bha9\b`,
	),
	types.BoroughHaringey: compilePatterns(
		`\bharingey\b`, `\bhighgate\b`, `\bcrouch end\b`, `\bmuswell hill\b`,
		`\bhornsey\b`, `\btottenham\b`, `\bwood green\b`, `\bbounds green\b`,
		`\bstroud green\b`,
		`\bn6\b`, `\bn8\b`, `\bn10\b`, `\bn22\b`,
	),
}

var categoryPatterns = map[types.Category][]*regexp.Regexp{
	types.CategoryBasement: compilePatterns(
		`\bbasement\b`, `\bsubterranean\b`, `\bcellar\b`, `\bunderground\b`,
		`\blower ground\b`, `\blight well\b`,
	),
	types.CategoryExtensions: compilePatterns(
		`\bextension\b`, `\brear extension\b`, `\bside extension\b`,
		`\bwrap.?around\b`, `\bsingle.?storey\b`, `\bdouble.?storey\b`,
		`\bconservatory\b`,
	),
	types.CategoryRoof: compilePatterns(
		`\broof\b`, `\bloft\b`, `\bdormer\b`, `\bmansard\b`, `\battic\b`,
		`\brooflight\b`, `\bskylight\b`, `\bsolar panel\b`, `\bchimney\b`,
		`\bvelux\b`,
	),
	types.CategoryWindows: compilePatterns(
		`\bwindow\b`, `\bglazing\b`, `\bfenestration\b`,
		`\breplacement window\b`, `\bfront elevation\b`,
	),
	types.CategoryConservationArea: compilePatterns(
		`\bconservation area\b`, `\barticle 4\b`,
	),
	types.CategoryHeritage: compilePatterns(
		`\bheritage\b`, `\blisted building\b`, `\bgrade.?[iI]{1,3}\b`,
		`\bhistoric\b`,
	),
	types.CategorySustainability: compilePatterns(
		`\bsustainability\b`, `\benergy efficiency\b`, `\bretrofit\b`,
		`\binsulation\b`, `\bheat pump\b`,
	),
}

// categoryOrder fixes the precedence when several categories match;
// more specific building-work topics win over broad policy topics.
var categoryOrder = []types.Category{
	types.CategoryBasement,
	types.CategoryExtensions,
	types.CategoryRoof,
	types.CategoryWindows,
	types.CategoryConservationArea,
	types.CategoryHeritage,
	types.CategorySustainability,
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// DetectBorough returns the borough implied by the query text, or
// empty when none matches
func DetectBorough(query string) types.Borough {
	for _, b := range types.AllBoroughs {
		for _, re := range boroughPatterns[b] {
			if re.MatchString(query) {
				return b
			}
		}
	}
	return ""
}

// DetectCategory returns the planning topic implied by the query
// text, or empty when none matches
func DetectCategory(query string) types.Category {
	for _, c := range categoryOrder {
		for _, re := range categoryPatterns[c] {
			if re.MatchString(query) {
				return c
			}
		}
	}
	return ""
}

// DetectFilters derives search filters from free-text queries, used
// when the caller supplies no explicit borough or category
func DetectFilters(query string) *storage.SearchFilters {
	borough := DetectBorough(query)
	category := DetectCategory(query)
	if borough == "" && category == "" {
		return nil
	}
	return &storage.SearchFilters{
		Borough:  string(borough),
		Category: string(category),
	}
}
