// Package partsdb maintains a local, queryable cache of a large
// electronic-component catalog, refreshed from a compressed remote feed,
// and serves structured/fuzzy search over it with natural ordering. It
// backs the part-placement tool's library browser.
package partsdb

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smdtools/partsdb/catalog"
	"github.com/smdtools/partsdb/config"
	"github.com/smdtools/partsdb/feed"
	"github.com/smdtools/partsdb/query"
	"github.com/smdtools/partsdb/schema"
	"github.com/smdtools/partsdb/util"
)

// ErrSyncRunning rejects a sync while another run is active against the
// same store.
var ErrSyncRunning = errors.New("a catalog sync is already running")

const databaseFilename = "parts.db"

// Library Main Object.
type Library struct {
	cfg      config.Config
	store    FootprintStore
	notifier Notifier

	mu        sync.Mutex // guards sort state
	orderBy   string
	orderDesc bool

	syncMu sync.Mutex // held for the whole of a sync run
}

// NewLibrary constructor. store may be nil when no board is open;
// notifier may be nil to discard notifications.
func NewLibrary(cfg config.Config, store FootprintStore, notifier Notifier) *Library {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &Library{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		orderBy:  schema.PartsTablePartColName,
	}
}

// DatabasePath returns the catalog database file location.
func (l *Library) DatabasePath() string {
	return filepath.Join(l.cfg.DataDir, databaseFilename)
}

// SetOrderBy selects the sort column by its position in the sortable
// column list. Selecting the current column flips the direction; any
// other column resets to ascending.
func (l *Library) SetOrderBy(n int) {
	if n < 0 || n >= len(schema.SortableColumns) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	column := schema.SortableColumns[n]

	if l.orderBy == column {
		l.orderDesc = !l.orderDesc

		return
	}

	l.orderBy = column
	l.orderDesc = false
}

func (l *Library) openRepository() (*catalog.Repository, error) {
	if _, err := os.Stat(l.cfg.DataDir); os.IsNotExist(err) {
		logrus.Infof("data directory %s does not exist and will be created", l.cfg.DataDir)

		if err := os.MkdirAll(l.cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	return catalog.Open(l.DatabasePath())
}

// Search opens a short-lived connection and runs the query in the
// current sort order. A malformed keyword string is notified to the user
// and reported to the caller with zero rows; an empty filter set yields
// zero rows without touching the table.
func (l *Library) Search(ctx context.Context, opts *query.PartsListOptions) ([]catalog.Part, error) {
	l.mu.Lock()
	opts.OrderBy = l.orderBy
	opts.Descending = l.orderDesc
	l.mu.Unlock()

	repo, err := l.openRepository()
	if err != nil {
		return nil, err
	}

	defer util.Close(repo)

	start := time.Now()

	parts, err := repo.Search(ctx, opts)

	searchDuration.Observe(time.Since(start).Seconds())

	var syntaxErr *query.SyntaxError

	switch {
	case errors.As(err, &syntaxErr):
		logrus.Errorf("can't split keyword: %s", syntaxErr.Err)
		l.notifier.Message("Query error", "Unable to split keywords: "+syntaxErr.Err.Error(), SeverityError)

		return nil, err
	case errors.Is(err, query.ErrEmptyQuery):
		return nil, nil
	case err != nil:
		return nil, err
	}

	return parts, nil
}

// Sync refreshes the catalog from the remote feed on a background
// worker and returns immediately; the outcome arrives through the
// Notifier. Only one run may be active at a time.
func (l *Library) Sync(ctx context.Context) error {
	if !l.syncMu.TryLock() {
		return ErrSyncRunning
	}

	syncsStarted.Inc()

	go func() {
		defer l.syncMu.Unlock()

		l.runSync(ctx)
	}()

	return nil
}

// fail emits the single terminal error notification of a sync run.
func (l *Library) fail(log *logrus.Entry, title, text string) {
	syncsFailed.Inc()
	log.Errorf("%s: %s", title, text)
	l.notifier.Message(title, text, SeverityError)
}

func (l *Library) runSync(ctx context.Context) {
	log := logrus.WithField("sync", uuid.NewString())
	start := time.Now()

	l.notifier.Progress(0)

	res, err := feed.Fetch(ctx, l.cfg.FeedURL)
	if err != nil {
		var statusErr *feed.StatusError

		switch {
		case errors.As(err, &statusErr):
			l.fail(log, "Download Error",
				fmt.Sprintf("Failed to download the parts feed, error code %d", statusErr.Code))
		case errors.Is(err, feed.ErrNoContentLength):
			l.fail(log, "Download Error",
				"Failed to download the parts feed, unable to determine size")
		default:
			l.fail(log, "Download Error", err.Error())
		}

		return
	}

	defer util.Close(res)

	log.Infof("downloading feed of %.2fMB, last modified %s",
		float64(res.Size)/1024/1024, res.LastModified)

	if res.BelowMinSize(l.cfg.MinFeedSize) {
		text := fmt.Sprintf("The parts feed is implausibly small (%d bytes)", res.Size)

		if l.cfg.AbortOnShortFeed {
			l.fail(log, "Download Error", text)

			return
		}

		log.Warn(text)
		l.notifier.Message("Download Error", text, SeverityWarning)
	}

	lineReader, err := feed.NewLineReader(res.Body)
	if err != nil {
		l.fail(log, "Download Error", err.Error())

		return
	}

	csvReader := csv.NewReader(lineReader)

	header, err := csvReader.Read()
	if err != nil {
		l.fail(log, "Import Error", "Failed to read the feed header: "+err.Error())

		return
	}

	repo, err := l.openRepository()
	if err != nil {
		l.fail(log, "Import Error", err.Error())

		return
	}

	defer util.Close(repo)

	if err := repo.EnsureRotationTable(ctx); err != nil {
		l.fail(log, "Import Error", err.Error())

		return
	}

	onBatch := func() {
		percent := float64(res.Body.BytesRead()) / float64(res.Size) * 100
		if percent > 100 {
			percent = 100
		}

		l.notifier.Progress(percent)
	}

	count, err := repo.ReplaceAll(ctx, header, csvReader, onBatch)
	if err != nil {
		l.fail(log, "Import Error", err.Error())

		return
	}

	rowsLoaded.Add(float64(count))
	bytesDownloaded.Add(float64(res.Body.BytesRead()))
	l.notifier.Progress(100)

	l.refreshStock(ctx, log, repo)

	elapsed := time.Since(start)
	syncDuration.Observe(elapsed.Seconds())
	syncsSucceeded.Inc()

	l.notifier.Done(fmt.Sprintf(
		"Successfully downloaded and imported the parts catalog (%d parts) in %.2f seconds",
		count, elapsed.Seconds()))
}

// refreshStock pushes freshly loaded stock values into the board store.
// Footprints without a bound catalog id are skipped, as are ids the new
// catalog no longer carries.
func (l *Library) refreshStock(ctx context.Context, log *logrus.Entry, repo *catalog.Repository) {
	if l.store == nil {
		return
	}

	all, err := l.store.ReadAll()
	if err != nil {
		log.Errorf("read footprints: %s", err)

		return
	}

	bound := make([]Footprint, 0, len(all))

	for _, fp := range all {
		if fp.PartID != "" {
			bound = append(bound, fp)
		}
	}

	log.Infof("updating stock values for %d footprints", len(bound))

	for i, fp := range bound {
		stock, err := repo.Stock(ctx, fp.PartID)
		if errors.Is(err, catalog.ErrPartNotFound) {
			continue
		}

		if err != nil {
			log.Errorf("stock for %s: %s", fp.PartID, err)

			continue
		}

		if err := l.store.SetStock(fp.Ref, stock); err != nil {
			log.Errorf("set stock for %s: %s", fp.Ref, err)
		}

		l.notifier.Progress(float64(i+1) / float64(len(bound)) * 100)
	}
}
