package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // enable sqlite3 dialect
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // enable sqlite driver

	"github.com/smdtools/partsdb/natsort"
	"github.com/smdtools/partsdb/query"
	"github.com/smdtools/partsdb/schema"
)

var (
	ErrPartNotFound       = errors.New("part not found")
	ErrCorrectionNotFound = errors.New("correction not found")
	ErrBadHeader          = errors.New("feed header does not match the known catalog columns")
)

// BatchSize rows are committed per transaction during a bulk load.
const BatchSize = 1000

// SearchLimit caps a search result regardless of match count.
const SearchLimit = 1000

// RowSource yields parsed feed rows until io.EOF. *csv.Reader satisfies
// it directly.
type RowSource interface {
	Read() ([]string, error)
}

// Repository Main Object.
type Repository struct {
	db    *goqu.Database
	sqlDB *sql.DB
}

// Open opens (creating if needed) the catalog database file.
func Open(path string) (*Repository, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	return &Repository{
		db:    goqu.New("sqlite3", sqlDB),
		sqlDB: sqlDB,
	}, nil
}

func (s *Repository) Close() error {
	return s.sqlDB.Close()
}

// validateHeader checks every header column against the closed allow-list
// and rejects duplicates. DDL identifiers never come from the feed as-is.
func validateHeader(header []string) error {
	if len(header) == 0 {
		return ErrBadHeader
	}

	allowed := make(map[string]bool, len(schema.PartsColumns))
	for _, c := range schema.PartsColumns {
		allowed[c] = true
	}

	seen := make(map[string]bool, len(header))

	for _, c := range header {
		if !allowed[c] || seen[c] {
			return fmt.Errorf("%w: %q", ErrBadHeader, c)
		}

		seen[c] = true
	}

	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// ReplaceAll materializes a fresh parts table from the header row and
// the row stream. Rows land in a staging table first; the live table is
// dropped and the staging table renamed inside one final transaction, so
// a mid-load failure leaves the previous catalog intact and readers
// never observe an empty or half-loaded table.
//
// onBatch fires after every committed batch; the caller derives progress
// from the compressed bytes it has consumed, not from row counts.
func (s *Repository) ReplaceAll(ctx context.Context, header []string, rows RowSource, onBatch func()) (int64, error) {
	if err := validateHeader(header); err != nil {
		return 0, err
	}

	if _, err := s.sqlDB.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(schema.PartsStagingTableName)); err != nil {
		return 0, fmt.Errorf("drop staging table: %w", err)
	}

	cols := make([]string, len(header))
	colsAny := make([]interface{}, len(header))

	for i, c := range header {
		cols[i] = quoteIdent(c)
		colsAny[i] = goqu.C(c)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(schema.PartsStagingTableName), strings.Join(cols, ", "))
	if _, err := s.sqlDB.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	var total int64

	batch := make([][]interface{}, 0, BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
			_, err := tx.Insert(schema.PartsStagingTable).
				Prepared(true).
				Cols(colsAny...).
				Vals(batch...).
				Executor().
				ExecContext(ctx)

			return err
		})
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}

		total += int64(len(batch))
		batch = batch[:0]

		if onBatch != nil {
			onBatch()
		}

		return nil
	}

	for {
		rec, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return total, fmt.Errorf("read feed row: %w", err)
		}

		vals := make(goqu.Vals, len(rec))
		for i, f := range rec {
			vals[i] = f
		}

		batch = append(batch, vals)

		if len(batch) == BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}

	if err := s.swapPartsTable(ctx); err != nil {
		return total, fmt.Errorf("swap parts table: %w", err)
	}

	logrus.Infof("loaded %d parts", total)

	return total, nil
}

// swapPartsTable atomically replaces the live table with the fully
// loaded staging table.
func (s *Repository) swapPartsTable(ctx context.Context) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(schema.PartsTableName)); err != nil {
		_ = tx.Rollback()

		return err
	}

	rename := fmt.Sprintf(
		"ALTER TABLE %s RENAME TO %s",
		quoteIdent(schema.PartsStagingTableName),
		quoteIdent(schema.PartsTableName),
	)
	if _, err = tx.ExecContext(ctx, rename); err != nil {
		_ = tx.Rollback()

		return err
	}

	return tx.Commit()
}

// EnsureRotationTable creates the rotation table when missing. Sync
// never drops it: corrections survive a full catalog resync.
func (s *Repository) EnsureRotationTable(ctx context.Context) error {
	_, err := s.sqlDB.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT NOT NULL UNIQUE, %s REAL NOT NULL)",
		quoteIdent(schema.RotationTableName),
		quoteIdent(schema.RotationTableRegexColName),
		quoteIdent(schema.RotationTableCorrectionColName),
	))
	if err != nil {
		return fmt.Errorf("create rotation table: %w", err)
	}

	return nil
}

// Correction is a regex-keyed footprint rotation override, independent
// of part data.
type Correction struct {
	Regex      string  `db:"regex"`
	Correction float64 `db:"correction"`
}

// Corrections returns all corrections ordered by regex.
func (s *Repository) Corrections(ctx context.Context) ([]Correction, error) {
	var corrections []Correction

	err := s.db.Select(schema.RotationTableRegexCol, schema.RotationTableCorrectionCol).
		From(schema.RotationTable).
		Order(schema.RotationTableRegexCol.Asc()).
		ScanStructsContext(ctx, &corrections)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}

	return corrections, nil
}

// CorrectionFor returns the correction stored for the given regex.
func (s *Repository) CorrectionFor(ctx context.Context, regex string) (Correction, error) {
	var correction Correction

	found, err := s.db.Select(schema.RotationTableRegexCol, schema.RotationTableCorrectionCol).
		From(schema.RotationTable).
		Where(schema.RotationTableRegexCol.Eq(regex)).
		Prepared(true).
		ScanStructContext(ctx, &correction)
	if err != nil {
		return Correction{}, fmt.Errorf("get correction: %w", err)
	}

	if !found {
		return Correction{}, ErrCorrectionNotFound
	}

	return correction, nil
}

// AddCorrection inserts a correction. The regex must be unused.
func (s *Repository) AddCorrection(ctx context.Context, correction Correction) error {
	_, err := s.db.Insert(schema.RotationTable).
		Prepared(true).
		Rows(goqu.Record{
			schema.RotationTableRegexColName:      correction.Regex,
			schema.RotationTableCorrectionColName: correction.Correction,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("add correction: %w", err)
	}

	return nil
}

// UpdateCorrection replaces the rotation value stored for a regex.
func (s *Repository) UpdateCorrection(ctx context.Context, correction Correction) error {
	res, err := s.db.Update(schema.RotationTable).
		Prepared(true).
		Set(goqu.Record{schema.RotationTableCorrectionColName: correction.Correction}).
		Where(schema.RotationTableRegexCol.Eq(correction.Regex)).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update correction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrCorrectionNotFound
	}

	return nil
}

// DeleteCorrection removes a correction by its regex.
func (s *Repository) DeleteCorrection(ctx context.Context, regex string) error {
	_, err := s.db.Delete(schema.RotationTable).
		Prepared(true).
		Where(schema.RotationTableRegexCol.Eq(regex)).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete correction: %w", err)
	}

	return nil
}

// Stock returns the stock quantity for one catalog id.
func (s *Repository) Stock(ctx context.Context, partID string) (int64, error) {
	var stock int64

	found, err := s.db.Select(schema.PartsTableStockCol).
		From(schema.PartsTable).
		Where(schema.PartsTablePartCol.Eq(partID)).
		Prepared(true).
		Limit(1).
		ScanValContext(ctx, &stock)
	if err != nil {
		return 0, fmt.Errorf("get stock: %w", err)
	}

	if !found {
		return 0, ErrPartNotFound
	}

	return stock, nil
}

// Search runs the options against the live table. database/sql over the
// sqlite driver exposes no collation hook, so rows are ordered here with
// the natural comparator and the cap applies after ordering, same as an
// ORDER BY ... LIMIT would.
func (s *Repository) Search(ctx context.Context, opts *query.PartsListOptions) ([]Part, error) {
	ds, err := opts.Select(s.db)
	if err != nil {
		return nil, err
	}

	sortCol, err := opts.SortColumn()
	if err != nil {
		return nil, err
	}

	sortIdx := 0

	for i, c := range schema.PartsColumns {
		if c == sortCol {
			sortIdx = i

			break
		}
	}

	sqlStr, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search parts: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var records [][]string

	for rows.Next() {
		rec := make([]string, len(schema.PartsColumns))
		dest := make([]interface{}, len(rec))

		for i := range rec {
			dest[i] = &rec[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search parts: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		less := natsort.Less(records[i][sortIdx], records[j][sortIdx])
		if opts.Descending {
			return natsort.Less(records[j][sortIdx], records[i][sortIdx])
		}

		return less
	})

	if len(records) > SearchLimit {
		records = records[:SearchLimit]
	}

	parts := make([]Part, 0, len(records))

	for _, rec := range records {
		part, err := PartFromRecord(rec)
		if err != nil {
			return nil, err
		}

		parts = append(parts, part)
	}

	return parts, nil
}
