package schema

import "github.com/doug-martin/goqu/v9"

const (
	PartsTableName        = "parts"
	PartsStagingTableName = "parts_staging"
)

// Column names follow the feed header verbatim, embedded spaces and the
// dot in MFR.Part included. Values are stored untyped.
const (
	PartsTablePartColName           = "LCSC Part"
	PartsTableFirstCategoryColName  = "First Category"
	PartsTableSecondCategoryColName = "Second Category"
	PartsTableMFRPartColName        = "MFR.Part"
	PartsTablePackageColName        = "Package"
	PartsTableSolderJointColName    = "Solder Joint"
	PartsTableManufacturerColName   = "Manufacturer"
	PartsTableLibraryTypeColName    = "Library Type"
	PartsTableDescriptionColName    = "Description"
	PartsTableDatasheetColName      = "Datasheet"
	PartsTablePriceColName          = "Price"
	PartsTableStockColName          = "Stock"
)

var (
	PartsTable                  = goqu.T(PartsTableName)
	PartsStagingTable           = goqu.T(PartsStagingTableName)
	PartsTablePartCol           = PartsTable.Col(PartsTablePartColName)
	PartsTableFirstCategoryCol  = PartsTable.Col(PartsTableFirstCategoryColName)
	PartsTableSecondCategoryCol = PartsTable.Col(PartsTableSecondCategoryColName)
	PartsTableMFRPartCol        = PartsTable.Col(PartsTableMFRPartColName)
	PartsTablePackageCol        = PartsTable.Col(PartsTablePackageColName)
	PartsTableSolderJointCol    = PartsTable.Col(PartsTableSolderJointColName)
	PartsTableManufacturerCol   = PartsTable.Col(PartsTableManufacturerColName)
	PartsTableLibraryTypeCol    = PartsTable.Col(PartsTableLibraryTypeColName)
	PartsTableDescriptionCol    = PartsTable.Col(PartsTableDescriptionColName)
	PartsTableDatasheetCol      = PartsTable.Col(PartsTableDatasheetColName)
	PartsTablePriceCol          = PartsTable.Col(PartsTablePriceColName)
	PartsTableStockCol          = PartsTable.Col(PartsTableStockColName)
)

// PartsColumns is the closed identifier allow-list in canonical feed
// order. A feed header must validate against it before any DDL or query
// is generated; identifiers are never taken from user input.
var PartsColumns = []string{
	PartsTablePartColName,
	PartsTableFirstCategoryColName,
	PartsTableSecondCategoryColName,
	PartsTableMFRPartColName,
	PartsTablePackageColName,
	PartsTableSolderJointColName,
	PartsTableManufacturerColName,
	PartsTableLibraryTypeColName,
	PartsTableDescriptionColName,
	PartsTableDatasheetColName,
	PartsTablePriceColName,
	PartsTableStockColName,
}

// SearchableColumns are matched against every keyword token.
var SearchableColumns = []string{
	PartsTablePartColName,
	PartsTableDescriptionColName,
	PartsTableMFRPartColName,
	PartsTablePackageColName,
	PartsTableManufacturerColName,
}

// SortableColumns is the ORDER BY allow-list, indexed by the position of
// the column in the result view.
var SortableColumns = []string{
	PartsTablePartColName,
	PartsTableMFRPartColName,
	PartsTablePackageColName,
	PartsTableSolderJointColName,
	PartsTableLibraryTypeColName,
	PartsTableManufacturerColName,
	PartsTableDescriptionColName,
	PartsTablePriceColName,
	PartsTableStockColName,
}

// IsSortable reports whether the column may appear in an ORDER BY.
func IsSortable(column string) bool {
	for _, c := range SortableColumns {
		if c == column {
			return true
		}
	}

	return false
}
