package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mhartsell/bidsweep-go/internal/fetch"
	"github.com/mhartsell/bidsweep-go/internal/models"
	"github.com/mhartsell/bidsweep-go/internal/sources"
)

// LocalBoardsName is the registry name of the local bid board adapter.
const LocalBoardsName = "local-boards"

// LocalBoards sweeps the configured city/county bid boards. Each board
// has a primary URL plus ordered fallbacks because local procurement
// pages move around constantly.
type LocalBoards struct {
	boards    []sources.LocalBoard
	newClient ClientFactory
	logger    *slog.Logger
}

// NewLocalBoards creates the local bid board adapter.
func NewLocalBoards(boards []sources.LocalBoard, newClient ClientFactory, logger *slog.Logger) *LocalBoards {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBoards{boards: boards, newClient: newClient, logger: logger}
}

// Name implements Adapter.
func (l *LocalBoards) Name() string { return LocalBoardsName }

// Scrape sweeps every configured board in table order. A board whose
// URLs all fail is logged and skipped; it never aborts the batch.
func (l *LocalBoards) Scrape(ctx context.Context) ([]models.ContractInput, error) {
	client := l.newClient()
	var out []models.ContractInput
	for _, board := range l.boards {
		if ctx.Err() != nil {
			return dedupeCandidates(out), ctx.Err()
		}
		out = append(out, l.scrapeBoard(ctx, client, board)...)
	}
	return dedupeCandidates(out), nil
}

// ScrapeCity scrapes a single configured locality by key, for
// operator-triggered refresh of one source.
func (l *LocalBoards) ScrapeCity(ctx context.Context, key string) ([]models.ContractInput, error) {
	for _, board := range l.boards {
		if board.Key == key {
			return dedupeCandidates(l.scrapeBoard(ctx, l.newClient(), board)), nil
		}
	}
	return nil, fmt.Errorf("unknown local board: %q", key)
}

// CityAdapter restricts the local board sweep to one configured city.
// It runs under the same registry name so run logs stay comparable.
type CityAdapter struct {
	boards *LocalBoards
	key    string
}

// City returns an adapter scoped to the board with the given key.
func (l *LocalBoards) City(key string) *CityAdapter {
	return &CityAdapter{boards: l, key: key}
}

// Name implements Adapter.
func (c *CityAdapter) Name() string { return LocalBoardsName }

// Scrape implements Adapter.
func (c *CityAdapter) Scrape(ctx context.Context) ([]models.ContractInput, error) {
	return c.boards.ScrapeCity(ctx, c.key)
}

// scrapeBoard tries the board's primary URL, then each fallback in
// order, stopping at the first URL that both fetches and yields
// listings.
func (l *LocalBoards) scrapeBoard(ctx context.Context, client *fetch.Client, board sources.LocalBoard) (out []models.ContractInput) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("board extraction panicked", "board", board.Key, "panic", fmt.Sprint(rec))
			out = nil
		}
	}()

	urls := append([]string{board.URL}, board.Fallbacks...)
	for i, u := range urls {
		if ctx.Err() != nil {
			return nil
		}

		page, err := client.Do(ctx, "GET", u, board.Headers)
		if err != nil {
			l.logger.Warn("board fetch failed", "board", board.Key, "url", u, "fallback", i > 0, "error", err)
			continue
		}

		listings := ExtractListings(page)
		if len(listings) == 0 {
			l.logger.Debug("board page had no listings, trying next url", "board", board.Key, "url", u)
			continue
		}

		for _, listing := range listings {
			c, ok := listingToContract(listing, LocalBoardsName, board.Name, board.Name)
			if !ok {
				continue
			}
			out = append(out, c)
		}
		l.logger.Debug("board swept", "board", board.Key, "url", u, "listings", len(listings), "kept", len(out))
		return out
	}

	l.logger.Warn("all urls exhausted for board", "board", board.Key, "urls", len(urls))
	return nil
}
