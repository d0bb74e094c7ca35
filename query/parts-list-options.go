// Package query translates search parameters into SQL datasets. Values
// are always bound; identifiers only ever come from the schema
// allow-lists.
package query

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/shlex"

	"github.com/smdtools/partsdb/schema"
)

// ErrEmptyQuery rejects a search with no keyword and no filters: an
// unfiltered scan of the whole catalog is never executed.
var ErrEmptyQuery = errors.New("no search terms or filters given")

// SyntaxError reports a malformed keyword string, typically an
// unbalanced quote.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return "parse keywords: " + e.Err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// PartsListOptions are the search parameters for the parts catalog.
//
// The keyword string splits under shell quoting rules; each token must
// match at least one searchable column (substring), and all tokens must
// match. Structured filters AND on top. When neither library-type flag
// is set no library-type restriction applies.
type PartsListOptions struct {
	Keyword         string
	Manufacturer    string
	Package         string
	Category        string
	PartNumber      string
	SolderJoints    string
	IncludeBasic    bool
	IncludeExtended bool
	InStockOnly     bool
	OrderBy         string
	Descending      bool
}

// Select builds the full-row dataset for the options.
func (s *PartsListOptions) Select(db *goqu.Database) (*goqu.SelectDataset, error) {
	cols := make([]interface{}, len(schema.PartsColumns))
	for i, c := range schema.PartsColumns {
		cols[i] = goqu.C(c)
	}

	return s.Apply(db.Select(cols...).From(schema.PartsTable).Prepared(true))
}

// Apply adds the filter clauses to sqSelect.
func (s *PartsListOptions) Apply(sqSelect *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	keywords, err := shlex.Split(s.Keyword)
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}

	filtered := false

	for _, keyword := range keywords {
		pattern := "%" + keyword + "%"

		ors := make([]exp.Expression, 0, len(schema.SearchableColumns))
		for _, c := range schema.SearchableColumns {
			ors = append(ors, goqu.C(c).Like(pattern))
		}

		sqSelect = sqSelect.Where(goqu.Or(ors...))
		filtered = true
	}

	// Structured filters pass the user pattern through unchanged, so
	// explicit wildcards keep working.
	if len(s.Manufacturer) > 0 {
		sqSelect = sqSelect.Where(goqu.C(schema.PartsTableManufacturerColName).Like(s.Manufacturer))
		filtered = true
	}

	if len(s.Package) > 0 {
		sqSelect = sqSelect.Where(goqu.C(schema.PartsTablePackageColName).Like(s.Package))
		filtered = true
	}

	if len(s.Category) > 0 {
		sqSelect = sqSelect.Where(goqu.Or(
			goqu.C(schema.PartsTableFirstCategoryColName).Like(s.Category),
			goqu.C(schema.PartsTableSecondCategoryColName).Like(s.Category),
		))
		filtered = true
	}

	if len(s.PartNumber) > 0 {
		sqSelect = sqSelect.Where(goqu.C(schema.PartsTableMFRPartColName).Like(s.PartNumber))
		filtered = true
	}

	if len(s.SolderJoints) > 0 {
		sqSelect = sqSelect.Where(goqu.C(schema.PartsTableSolderJointColName).Like(s.SolderJoints))
		filtered = true
	}

	var libraryTypes []string

	if s.IncludeBasic {
		libraryTypes = append(libraryTypes, "Basic")
	}

	if s.IncludeExtended {
		libraryTypes = append(libraryTypes, "Extended")
	}

	if len(libraryTypes) > 0 {
		sqSelect = sqSelect.Where(goqu.C(schema.PartsTableLibraryTypeColName).In(libraryTypes))
		filtered = true
	}

	if s.InStockOnly {
		// Stock is stored untyped; cast so the comparison is numeric.
		sqSelect = sqSelect.Where(goqu.L("CAST(? AS INTEGER) > 0", goqu.C(schema.PartsTableStockColName)))
		filtered = true
	}

	if !filtered {
		return nil, ErrEmptyQuery
	}

	return sqSelect, nil
}

// SortColumn validates the requested sort column against the allow-list.
// An empty value falls back to the catalog id.
func (s *PartsListOptions) SortColumn() (string, error) {
	if s.OrderBy == "" {
		return schema.PartsTablePartColName, nil
	}

	if !schema.IsSortable(s.OrderBy) {
		return "", errors.New("unsortable column: " + s.OrderBy)
	}

	return s.OrderBy, nil
}
