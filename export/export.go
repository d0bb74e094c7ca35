// Package export serializes a source component catalog to the same
// xz-compressed CSV format the sync pipeline consumes: identical column
// order, Library Type text derived from the basic flag, price tiers
// flattened to qFrom-qTo:price notation.
package export

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
	_ "modernc.org/sqlite" // enable sqlite driver

	"github.com/smdtools/partsdb/catalog"
	"github.com/smdtools/partsdb/schema"
)

// Writer emits parts as rows of the canonical compressed CSV. The
// header row is written on construction.
type Writer struct {
	xzWriter  *xz.Writer
	csvWriter *csv.Writer
}

func NewWriter(w io.Writer) (*Writer, error) {
	xzWriter, err := xz.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("open xz stream: %w", err)
	}

	csvWriter := csv.NewWriter(xzWriter)
	csvWriter.UseCRLF = true

	if err := csvWriter.Write(schema.PartsColumns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &Writer{
		xzWriter:  xzWriter,
		csvWriter: csvWriter,
	}, nil
}

func (w *Writer) Write(part catalog.Part) error {
	return w.csvWriter.Write(part.Record())
}

// Close flushes the CSV buffer and finalizes the compressed stream. It
// does not close the underlying writer.
func (w *Writer) Close() error {
	w.csvWriter.Flush()

	if err := w.csvWriter.Error(); err != nil {
		return err
	}

	return w.xzWriter.Close()
}

const sourceQuery = `SELECT lcsc, category, subcategory, mfr, package, joints,
	manufacturer, basic, description, datasheet, stock, price
	FROM v_components`

// FromSource reads the v_components view of a source catalog database
// and writes every component to out. It returns the number of exported
// parts.
func FromSource(dbPath string, out io.Writer) (int64, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open source database: %w", err)
	}

	defer func() { _ = db.Close() }()

	w, err := NewWriter(out)
	if err != nil {
		return 0, err
	}

	rows, err := db.Query(sourceQuery)
	if err != nil {
		return 0, fmt.Errorf("read source components: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var count int64

	for rows.Next() {
		var (
			lcsc, joints, basic, stock int64

			category, subcategory, mfr, pkg, manufacturer string
			description, datasheet, priceJSON             string
		)

		err = rows.Scan(&lcsc, &category, &subcategory, &mfr, &pkg, &joints,
			&manufacturer, &basic, &description, &datasheet, &stock, &priceJSON)
		if err != nil {
			return count, fmt.Errorf("scan component: %w", err)
		}

		prices, err := catalog.ParsePriceJSON([]byte(priceJSON))
		if err != nil {
			return count, fmt.Errorf("component C%d: %w", lcsc, err)
		}

		part := catalog.Part{
			ID:             fmt.Sprintf("C%d", lcsc),
			FirstCategory:  category,
			SecondCategory: subcategory,
			MFRPart:        mfr,
			Package:        pkg,
			SolderJoints:   fmt.Sprintf("%d", joints),
			Manufacturer:   manufacturer,
			LibraryType:    catalog.LibraryTypeFromFlag(basic),
			Description:    description,
			Datasheet:      datasheet,
			Prices:         prices,
			Stock:          stock,
		}

		if err := w.Write(part); err != nil {
			return count, fmt.Errorf("write component C%d: %w", lcsc, err)
		}

		count++
	}

	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("read source components: %w", err)
	}

	return count, w.Close()
}
