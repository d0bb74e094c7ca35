// Package catalog owns the local parts database: the data model, the
// bulk loader that materializes it from the feed, rotation corrections
// and search execution.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/smdtools/partsdb/schema"
)

// LibraryType is the Basic/Extended classification of a part.
type LibraryType string

const (
	LibraryTypeBasic    LibraryType = "Basic"
	LibraryTypeExtended LibraryType = "Extended"
)

// LibraryTypeFromFlag maps the source flag to the classification. Zero
// means Basic, anything else Extended.
func LibraryTypeFromFlag(flag int64) LibraryType {
	if flag == 0 {
		return LibraryTypeBasic
	}

	return LibraryTypeExtended
}

// PriceTier is a quantity range with a unit price. A zero bound means
// the range is unbounded at that end.
type PriceTier struct {
	QtyFrom int64
	QtyTo   int64
	Price   decimal.Decimal
}

// String renders the tier in qFrom-qTo:price notation with empty fields
// for unbounded ends.
func (t PriceTier) String() string {
	var b strings.Builder

	if t.QtyFrom > 0 {
		b.WriteString(strconv.FormatInt(t.QtyFrom, 10))
	}

	b.WriteByte('-')

	if t.QtyTo > 0 {
		b.WriteString(strconv.FormatInt(t.QtyTo, 10))
	}

	b.WriteByte(':')
	b.WriteString(t.Price.String())

	return b.String()
}

// PriceTiers preserves the order the source gives the tiers in.
type PriceTiers []PriceTier

func (ts PriceTiers) String() string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}

	return strings.Join(parts, ",")
}

// ParsePriceTiers parses the comma-joined qFrom-qTo:price notation.
func ParsePriceTiers(s string) (PriceTiers, error) {
	if s == "" {
		return nil, nil
	}

	var tiers PriceTiers

	for _, part := range strings.Split(s, ",") {
		qtyRange, price, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("price tier %q: missing price", part)
		}

		from, to, found := strings.Cut(qtyRange, "-")
		if !found {
			return nil, fmt.Errorf("price tier %q: missing quantity range", part)
		}

		var tier PriceTier

		var err error

		if from != "" {
			tier.QtyFrom, err = strconv.ParseInt(from, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("price tier %q: %w", part, err)
			}
		}

		if to != "" {
			tier.QtyTo, err = strconv.ParseInt(to, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("price tier %q: %w", part, err)
			}
		}

		tier.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("price tier %q: %w", part, err)
		}

		tiers = append(tiers, tier)
	}

	return tiers, nil
}

// priceJSON is one element of the embedded array-of-objects price
// representation in the source catalog database.
type priceJSON struct {
	QtyFrom *int64          `json:"qFrom"`
	QtyTo   *int64          `json:"qTo"`
	Price   decimal.Decimal `json:"price"`
}

// ParsePriceJSON parses the embedded structured price representation the
// exporter flattens. Null bounds map to unbounded ends.
func ParsePriceJSON(data []byte) (PriceTiers, error) {
	var raw []priceJSON

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse price json: %w", err)
	}

	tiers := make(PriceTiers, 0, len(raw))

	for _, r := range raw {
		tier := PriceTier{Price: r.Price}

		if r.QtyFrom != nil {
			tier.QtyFrom = *r.QtyFrom
		}

		if r.QtyTo != nil {
			tier.QtyTo = *r.QtyTo
		}

		tiers = append(tiers, tier)
	}

	return tiers, nil
}

// Part is one catalog record.
type Part struct {
	ID             string
	FirstCategory  string
	SecondCategory string
	MFRPart        string
	Package        string
	SolderJoints   string
	Manufacturer   string
	LibraryType    LibraryType
	Description    string
	Datasheet      string
	Prices         PriceTiers
	Stock          int64
}

// Record renders the part as a feed row in canonical column order.
func (p Part) Record() []string {
	return []string{
		p.ID,
		p.FirstCategory,
		p.SecondCategory,
		p.MFRPart,
		p.Package,
		p.SolderJoints,
		p.Manufacturer,
		string(p.LibraryType),
		p.Description,
		p.Datasheet,
		p.Prices.String(),
		strconv.FormatInt(p.Stock, 10),
	}
}

// PartFromRecord parses a feed row in canonical column order.
func PartFromRecord(rec []string) (Part, error) {
	if len(rec) != len(schema.PartsColumns) {
		return Part{}, fmt.Errorf("part record has %d fields, want %d", len(rec), len(schema.PartsColumns))
	}

	prices, err := ParsePriceTiers(rec[10])
	if err != nil {
		return Part{}, err
	}

	var stock int64

	if rec[11] != "" {
		stock, err = strconv.ParseInt(rec[11], 10, 64)
		if err != nil {
			return Part{}, fmt.Errorf("part %s stock: %w", rec[0], err)
		}
	}

	return Part{
		ID:             rec[0],
		FirstCategory:  rec[1],
		SecondCategory: rec[2],
		MFRPart:        rec[3],
		Package:        rec[4],
		SolderJoints:   rec[5],
		Manufacturer:   rec[6],
		LibraryType:    LibraryType(rec[7]),
		Description:    rec[8],
		Datasheet:      rec[9],
		Prices:         prices,
		Stock:          stock,
	}, nil
}
