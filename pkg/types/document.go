package types

import (
	"errors"
	"time"
)

// Borough identifies the London borough a document applies to
type Borough string

const (
	BoroughCamden      Borough = "Camden"
	BoroughBarnet      Borough = "Barnet"
	BoroughWestminster Borough = "Westminster"
	BoroughBrent       Borough = "Brent"
	BoroughHaringey    Borough = "Haringey"
)

// AllBoroughs lists every supported borough in display order
var AllBoroughs = []Borough{
	BoroughCamden,
	BoroughBarnet,
	BoroughWestminster,
	BoroughBrent,
	BoroughHaringey,
}

// Valid reports whether the borough is one of the supported set
func (b Borough) Valid() bool {
	switch b {
	case BoroughCamden, BoroughBarnet, BoroughWestminster, BoroughBrent, BoroughHaringey:
		return true
	default:
		return false
	}
}

// Category classifies a planning document
type Category string

const (
	CategoryLocalPlan        Category = "local_plan"
	CategoryConservationArea Category = "conservation_area"
	CategoryDesignGuide      Category = "design_guide"
	CategorySPD              Category = "supplementary_planning_document"
	CategoryBasement         Category = "basement"
	CategoryExtensions       Category = "extensions"
	CategoryRoof             Category = "roof"
	CategoryWindows          Category = "windows"
	CategoryHeritage         Category = "heritage"
	CategorySustainability   Category = "sustainability"
	CategoryOther            Category = "other"
)

// Valid reports whether the category is one of the supported set
func (c Category) Valid() bool {
	switch c {
	case CategoryLocalPlan, CategoryConservationArea, CategoryDesignGuide,
		CategorySPD, CategoryBasement, CategoryExtensions, CategoryRoof,
		CategoryWindows, CategoryHeritage, CategorySustainability, CategoryOther:
		return true
	default:
		return false
	}
}

// Document represents an ingested planning document. A document owns its
// chunks; deleting it cascades, deactivating it hides the chunks from
// search without deleting them.
type Document struct {
	ID          string
	Name        string
	Borough     Borough
	Category    Category
	SourceURL   string
	FilePath    string
	TotalPages  int
	TotalChunks int
	IsActive    bool
	Version     string
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the document's required fields
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New("document ID is required")
	}
	if d.Name == "" {
		return errors.New("document name is required")
	}
	if !d.Borough.Valid() {
		return ErrInvalidBorough
	}
	if !d.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}
