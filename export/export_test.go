package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smdtools/partsdb/catalog"
	"github.com/smdtools/partsdb/feed"
	"github.com/smdtools/partsdb/query"
	"github.com/smdtools/partsdb/schema"
)

func createSourceDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	_, err = db.Exec(`CREATE TABLE v_components (
		lcsc INTEGER, category TEXT, subcategory TEXT, mfr TEXT,
		package TEXT, joints INTEGER, manufacturer TEXT, basic INTEGER,
		description TEXT, datasheet TEXT, stock INTEGER, price TEXT
	)`)
	require.NoError(t, err)

	insert := `INSERT INTO v_components VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.Exec(insert,
		25804, "Resistors", "Chip Resistor - Surface Mount", "0603WAF1002T5E",
		"0603", 2, "UNI-ROYAL(Uniroyal Elec)", 0,
		"10kOhm 1% 1/10W", "https://datasheet.lcsc.com/C25804.pdf", 295681,
		`[{"qFrom":1,"qTo":100,"price":0.004},{"qFrom":101,"qTo":null,"price":0.0015}]`)
	require.NoError(t, err)

	_, err = db.Exec(insert,
		14663, "Capacitors", "MLCC", "CL10A105KB8NNNC",
		"0805", 2, "Samsung", 1,
		"1uF 50V X5R", "https://datasheet.lcsc.com/C14663.pdf", 0,
		`[{"qFrom":null,"qTo":50,"price":0.012}]`)
	require.NoError(t, err)

	return path
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	count, err := FromSource(createSourceDatabase(t), &buf)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	// Reload through the sync pipeline.
	lineReader, err := feed.NewLineReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	csvReader := csv.NewReader(lineReader)

	header, err := csvReader.Read()
	require.NoError(t, err)
	require.Equal(t, schema.PartsColumns, header)

	repo, err := catalog.Open(filepath.Join(t.TempDir(), "parts.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()

	loaded, err := repo.ReplaceAll(ctx, header, csvReader, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), loaded)

	parts, err := repo.Search(ctx, &query.PartsListOptions{Category: "%s%"})
	require.NoError(t, err)
	require.Len(t, parts, 2)

	// Natural order on the catalog id puts C14663 before C25804.
	capacitor, resistor := parts[0], parts[1]

	require.Equal(t, "C25804", resistor.ID)
	require.Equal(t, "Resistors", resistor.FirstCategory)
	require.Equal(t, "0603WAF1002T5E", resistor.MFRPart)
	require.Equal(t, catalog.LibraryTypeBasic, resistor.LibraryType)
	require.Equal(t, "1-100:0.004,101-:0.0015", resistor.Prices.String())
	require.Equal(t, int64(295681), resistor.Stock)

	require.Equal(t, "C14663", capacitor.ID)
	require.Equal(t, catalog.LibraryTypeExtended, capacitor.LibraryType)
	require.Equal(t, "-50:0.012", capacitor.Prices.String())
	require.Zero(t, capacitor.Stock)
}

func TestWriterHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lineReader, err := feed.NewLineReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	line, err := lineReader.ReadLine()
	require.NoError(t, err)
	require.Contains(t, string(line), "LCSC Part,First Category")
}
