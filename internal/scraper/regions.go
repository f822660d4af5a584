package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mhartsell/bidsweep-go/internal/fetch"
	"github.com/mhartsell/bidsweep-go/internal/models"
	"github.com/mhartsell/bidsweep-go/internal/sources"
)

// RegionsName is the registry name of the multi-region adapter.
const RegionsName = "regions"

// Regions sweeps the configured table of state/regional procurement
// portals. Markup varies per region, so extraction always goes through
// the generic cascade.
type Regions struct {
	regions   []sources.Region
	workers   int
	newClient ClientFactory
	logger    *slog.Logger
}

// NewRegions creates the multi-region adapter. With workers > 1 the
// sweep runs on a bounded worker pool, otherwise sequentially.
func NewRegions(regions []sources.Region, workers int, newClient ClientFactory, logger *slog.Logger) *Regions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Regions{regions: regions, workers: workers, newClient: newClient, logger: logger}
}

// Name implements Adapter.
func (r *Regions) Name() string { return RegionsName }

// Scrape sweeps every region using the configured mode.
func (r *Regions) Scrape(ctx context.Context) ([]models.ContractInput, error) {
	if r.workers > 1 {
		return r.ScrapeParallel(ctx, r.workers)
	}
	return r.scrapeSequential(ctx)
}

// scrapeSequential sweeps with a single rate-limited client, in table
// order. One region's failure is logged and skipped.
func (r *Regions) scrapeSequential(ctx context.Context) ([]models.ContractInput, error) {
	client := r.newClient()
	var out []models.ContractInput
	for _, region := range r.regions {
		if ctx.Err() != nil {
			return dedupeCandidates(out), ctx.Err()
		}
		out = append(out, r.scrapeRegion(ctx, client, region)...)
	}
	return dedupeCandidates(out), nil
}

// ScrapeParallel sweeps regions with a bounded worker pool. Every
// worker owns an independent client (its own HTTP session and
// rate-limit clock) and collects into its own slice; results are
// merged only after all workers finish, so no collection is written
// concurrently. The contract set matches Scrape, order aside.
func (r *Regions) ScrapeParallel(ctx context.Context, workers int) ([]models.ContractInput, error) {
	if workers <= 1 {
		return r.scrapeSequential(ctx)
	}
	if workers > len(r.regions) && len(r.regions) > 0 {
		workers = len(r.regions)
	}

	jobs := make(chan sources.Region, len(r.regions))
	perWorker := make([][]models.ContractInput, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := r.newClient()
			for region := range jobs {
				if ctx.Err() != nil {
					return
				}
				perWorker[workerID] = append(perWorker[workerID], r.scrapeRegion(ctx, client, region)...)
			}
		}(i)
	}

	for _, region := range r.regions {
		jobs <- region
	}
	close(jobs)
	wg.Wait()

	var out []models.ContractInput
	for _, batch := range perWorker {
		out = append(out, batch...)
	}
	return dedupeCandidates(out), ctx.Err()
}

// scrapeRegion fetches one region portal and runs the extraction
// cascade. Panics from a hostile page structure are contained here so
// the other 49 regions still get swept.
func (r *Regions) scrapeRegion(ctx context.Context, client *fetch.Client, region sources.Region) (out []models.ContractInput) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("region extraction panicked", "region", region.Key, "panic", fmt.Sprint(rec))
			out = nil
		}
	}()

	page, err := client.Do(ctx, "GET", region.URL, region.Headers)
	if err != nil {
		r.logger.Warn("region fetch failed", "region", region.Key, "url", region.URL, "error", err)
		return nil
	}

	listings := ExtractListings(page)
	for _, listing := range listings {
		// The region is stamped on regardless of which strategy matched.
		c, ok := listingToContract(listing, RegionsName, region.Name, region.Name)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	r.logger.Debug("region swept", "region", region.Key, "listings", len(listings), "kept", len(out))
	return out
}
