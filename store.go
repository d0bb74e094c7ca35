package partsdb

// Footprint is one board footprint tracked by the placement tool,
// optionally bound to a catalog id.
type Footprint struct {
	Ref    string
	PartID string // empty when no catalog id is assigned
}

// FootprintStore is the placement tool's board-side store. The library
// pushes fresh stock values into it after every successful sync.
type FootprintStore interface {
	ReadAll() ([]Footprint, error)
	SetStock(ref string, stock int64) error
}
