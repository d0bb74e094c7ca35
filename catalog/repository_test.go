package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smdtools/partsdb/query"
	"github.com/smdtools/partsdb/schema"
)

type sliceRows struct {
	rows [][]string
	pos  int
	// fail aborts the stream with an error after this many rows when
	// positive.
	fail int
}

func (s *sliceRows) Read() ([]string, error) {
	if s.fail > 0 && s.pos == s.fail {
		return nil, errors.New("stream corrupt")
	}

	if s.pos == len(s.rows) {
		return nil, io.EOF
	}

	rec := s.rows[s.pos]
	s.pos++

	return rec, nil
}

func openTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := Open(filepath.Join(t.TempDir(), "parts.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func fullHeader() []string {
	return append([]string(nil), schema.PartsColumns...)
}

func testRow(id string, stock int64) []string {
	return Part{
		ID:           id,
		MFRPart:      "MFR-" + id,
		Package:      "0603",
		SolderJoints: "2",
		Manufacturer: "ACME",
		LibraryType:  LibraryTypeBasic,
		Description:  "test part " + id,
		Stock:        stock,
	}.Record()
}

func (s *Repository) countParts(t *testing.T) int64 {
	t.Helper()

	count, err := s.db.From(schema.PartsTable).Count()
	require.NoError(t, err)

	return count
}

func TestReplaceAllBatching(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	header := []string{
		schema.PartsTablePartColName,
		schema.PartsTableMFRPartColName,
		schema.PartsTablePackageColName,
		schema.PartsTableManufacturerColName,
		schema.PartsTableStockColName,
	}

	rows := make([][]string, 0, 2500)
	for i := 0; i < 2500; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("C%d", i+1), fmt.Sprintf("MFR-%d", i+1), "0603", "ACME", "5",
		})
	}

	batches := 0

	count, err := repo.ReplaceAll(ctx, header, &sliceRows{rows: rows}, func() { batches++ })
	require.NoError(t, err)
	require.Equal(t, int64(2500), count)
	require.Equal(t, 3, batches) // 1000 + 1000 + 500
	require.Equal(t, int64(2500), repo.countParts(t))
}

func TestReplaceAllRejectsUnknownColumns(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)

	_, err := repo.ReplaceAll(context.Background(),
		[]string{"LCSC Part", `Stock"); DROP TABLE parts; --`},
		&sliceRows{}, nil)
	require.ErrorIs(t, err, ErrBadHeader)

	_, err = repo.ReplaceAll(context.Background(),
		[]string{"LCSC Part", "LCSC Part"}, &sliceRows{}, nil)
	require.ErrorIs(t, err, ErrBadHeader)

	_, err = repo.ReplaceAll(context.Background(), nil, &sliceRows{}, nil)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestReplaceAllKeepsPreviousCatalogOnFailure(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	first := &sliceRows{rows: [][]string{testRow("C100", 5), testRow("C200", 0)}}

	count, err := repo.ReplaceAll(ctx, fullHeader(), first, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	// A stream failing mid-load must leave the live table untouched.
	bad := &sliceRows{rows: [][]string{testRow("C300", 1)}, fail: 1}

	_, err = repo.ReplaceAll(ctx, fullHeader(), bad, nil)
	require.Error(t, err)

	require.Equal(t, int64(2), repo.countParts(t))

	_, err = repo.Stock(ctx, "C100")
	require.NoError(t, err)
}

func TestRotationTableSurvivesResync(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureRotationTable(ctx))
	require.NoError(t, repo.AddCorrection(ctx, Correction{Regex: "^R_0402", Correction: 90}))

	_, err := repo.ReplaceAll(ctx, fullHeader(),
		&sliceRows{rows: [][]string{testRow("C100", 5)}}, nil)
	require.NoError(t, err)

	// Idempotent, never drops.
	require.NoError(t, repo.EnsureRotationTable(ctx))

	correction, err := repo.CorrectionFor(ctx, "^R_0402")
	require.NoError(t, err)
	require.InEpsilon(t, 90.0, correction.Correction, 0.0001)
}

func TestCorrectionsCRUD(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureRotationTable(ctx))

	require.NoError(t, repo.AddCorrection(ctx, Correction{Regex: "^SOT-23", Correction: 180}))
	require.NoError(t, repo.AddCorrection(ctx, Correction{Regex: "^QFN", Correction: -90}))

	// Regex is unique.
	require.Error(t, repo.AddCorrection(ctx, Correction{Regex: "^QFN", Correction: 270}))

	corrections, err := repo.Corrections(ctx)
	require.NoError(t, err)
	require.Equal(t, []Correction{
		{Regex: "^QFN", Correction: -90},
		{Regex: "^SOT-23", Correction: 180},
	}, corrections)

	require.NoError(t, repo.UpdateCorrection(ctx, Correction{Regex: "^QFN", Correction: 270}))

	correction, err := repo.CorrectionFor(ctx, "^QFN")
	require.NoError(t, err)
	require.InEpsilon(t, 270.0, correction.Correction, 0.0001)

	require.ErrorIs(t,
		repo.UpdateCorrection(ctx, Correction{Regex: "^NOPE", Correction: 1}),
		ErrCorrectionNotFound)

	require.NoError(t, repo.DeleteCorrection(ctx, "^QFN"))

	_, err = repo.CorrectionFor(ctx, "^QFN")
	require.ErrorIs(t, err, ErrCorrectionNotFound)
}

func TestStock(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	_, err := repo.ReplaceAll(ctx, fullHeader(),
		&sliceRows{rows: [][]string{testRow("C100", 5), testRow("C200", 0)}}, nil)
	require.NoError(t, err)

	stock, err := repo.Stock(ctx, "C100")
	require.NoError(t, err)
	require.Equal(t, int64(5), stock)

	stock, err = repo.Stock(ctx, "C200")
	require.NoError(t, err)
	require.Zero(t, stock)

	_, err = repo.Stock(ctx, "C999")
	require.ErrorIs(t, err, ErrPartNotFound)
}

func TestSearchNaturalOrderAndCap(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	rows := [][]string{
		testRow("C10", 1),
		testRow("C2", 1),
		testRow("C1", 1),
		testRow("C9", 1),
	}

	_, err := repo.ReplaceAll(ctx, fullHeader(), &sliceRows{rows: rows}, nil)
	require.NoError(t, err)

	parts, err := repo.Search(ctx, &query.PartsListOptions{Keyword: "test part"})
	require.NoError(t, err)

	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.ID)
	}

	require.Equal(t, []string{"C1", "C2", "C9", "C10"}, ids)

	parts, err = repo.Search(ctx, &query.PartsListOptions{
		Keyword:    "test part",
		OrderBy:    schema.PartsTablePartColName,
		Descending: true,
	})
	require.NoError(t, err)
	require.Equal(t, "C10", parts[0].ID)
}

func TestSearchFilters(t *testing.T) {
	t.Parallel()

	repo := openTestRepository(t)
	ctx := context.Background()

	r1 := testRow("C100", 5)
	r2 := testRow("C200", 0)

	_, err := repo.ReplaceAll(ctx, fullHeader(), &sliceRows{rows: [][]string{r1, r2}}, nil)
	require.NoError(t, err)

	parts, err := repo.Search(ctx, &query.PartsListOptions{Keyword: "C100"})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Equal(t, "C100", parts[0].ID)

	parts, err = repo.Search(ctx, &query.PartsListOptions{
		Keyword:     "test part",
		InStockOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Equal(t, "C100", parts[0].ID)

	parts, err = repo.Search(ctx, &query.PartsListOptions{
		Keyword:         "test part",
		IncludeExtended: true,
	})
	require.NoError(t, err)
	require.Empty(t, parts)
}
