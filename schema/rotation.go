package schema

import "github.com/doug-martin/goqu/v9"

const (
	RotationTableName = "rotation"

	RotationTableRegexColName      = "regex"
	RotationTableCorrectionColName = "correction"
)

var (
	RotationTable              = goqu.T(RotationTableName)
	RotationTableRegexCol      = RotationTable.Col(RotationTableRegexColName)
	RotationTableCorrectionCol = RotationTable.Col(RotationTableCorrectionColName)
)
