package pipeline

import (
	"context"

	"drspark-watcher/config"
	"drspark-watcher/models"
	"drspark-watcher/notify"
	"drspark-watcher/scraper/drspark"
	"drspark-watcher/storage"
	"drspark-watcher/utils"
)

// Fetcher retrieves the listing page body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ItemParser turns a page body into item records in document order.
type ItemParser interface {
	Parse(html string) ([]*models.Item, error)
}

// ItemNotifier delivers one item to the alert channel.
type ItemNotifier interface {
	Notify(item *models.Item) notify.Result
}

// Runner executes one polling cycle: fetch → extract → filter → dedup →
// notify. It holds no state of its own between cycles; the seen store is the
// only thing that persists.
type Runner struct {
	cfg      *config.Config
	logger   *utils.Logger
	fetcher  Fetcher
	parser   ItemParser
	store    storage.SeenStore
	notifier ItemNotifier
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(cfg *config.Config, logger *utils.Logger, fetcher Fetcher,
	parser ItemParser, store storage.SeenStore, notifier ItemNotifier) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		fetcher:  fetcher,
		parser:   parser,
		store:    store,
		notifier: notifier,
	}
}

// RunCycle processes the listing page once. Every failure is contained here:
// it aborts the current cycle with a log line and never propagates to the
// scheduler, so one bad cycle can't take the watcher down.
func (r *Runner) RunCycle(ctx context.Context) {
	body, err := r.fetcher.Fetch(ctx, r.cfg.ListURL)
	if err != nil {
		r.logger.Error("Cycle aborted: fetch: %v", err)
		return
	}

	items, err := r.parser.Parse(body)
	if err != nil {
		r.logger.Error("Cycle aborted: parse: %v", err)
		return
	}

	for _, item := range items {
		if item.HasStatus(drspark.StatusInProgress) {
			// in-progress sales are filtered, not recorded: once the sale
			// falls through and the tag disappears, the item alerts as new
			r.logger.Debug("Filtered: %s", item.ID)
			continue
		}

		fresh, err := r.store.RecordIfNew(item)
		if err != nil {
			r.logger.Error("Seen store failed for %s: %v", item.ID, err)
			continue
		}
		if !fresh {
			r.logger.Debug("Seen: %s", item.ID)
			continue
		}

		r.logger.Info("NEW: %s -> %s", item.Title, item.URL)
		res := r.notifier.Notify(item)
		if res.State == notify.StateFailed {
			// The seen entry stays: at-most-once delivery, no duplicate alerts.
			r.logger.Error("Cycle aborted: notify %s: %v", item.ID, res.Err)
			return
		}
	}
}
