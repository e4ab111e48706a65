package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearplan/planrag/pkg/types"
)

func TestDetectBorough(t *testing.T) {
	tests := []struct {
		query string
		want  types.Borough
	}{
		{"basement extension in Camden", types.BoroughCamden},
		{"do I need permission in hampstead", types.BoroughCamden},
		{"loft conversion rules for NW3", types.BoroughCamden},
		{"golders green rear extension", types.BoroughBarnet},
		{"soho change of use", types.BoroughWestminster},
		{"wembley HMO licensing", types.BoroughBrent},
		{"crouch end dormer windows", types.BoroughHaringey},
		{"general permitted development rules", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBorough(tt.query))
		})
	}
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		query string
		want  types.Category
	}{
		{"basement excavation depth limits", types.CategoryBasement},
		{"single storey rear extension", types.CategoryExtensions},
		{"dormer loft conversion", types.CategoryRoof},
		{"replacement window glazing", types.CategoryWindows},
		{"article 4 direction restrictions", types.CategoryConservationArea},
		{"grade II listed building consent", types.CategoryHeritage},
		{"heat pump installation", types.CategorySustainability},
		{"how long does an application take", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCategory(tt.query))
		})
	}
}

func TestDetectCategoryPrecedence(t *testing.T) {
	// Building-work topics outrank policy topics when both appear.
	got := DetectCategory("basement extension in a conservation area")
	assert.Equal(t, types.CategoryBasement, got)
}

func TestDetectFilters(t *testing.T) {
	f := DetectFilters("basement works in camden")
	assert.NotNil(t, f)
	assert.Equal(t, "Camden", f.Borough)
	assert.Equal(t, "basement", f.Category)

	f = DetectFilters("planning fees")
	assert.Nil(t, f, "no signal yields no filters")
}
