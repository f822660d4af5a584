package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mhartsell/bidsweep-go/internal/fetch"
	"github.com/mhartsell/bidsweep-go/internal/models"
)

// StatePortalName is the registry name of the state portal adapter.
const StatePortalName = "state-portal"

// StatePortalConfig describes the one well-known state procurement
// portal with a stable page structure. URLs and selectors here are
// configuration; the adapter logic is generic.
type StatePortalConfig struct {
	Agency     string
	Location   string
	SearchURL  string // %s is replaced with the url-escaped keyword
	ListingURL string // direct listing index, used when search yields nothing
	Keywords   []string
}

// DefaultStatePortalConfig targets the Florida state marketplace, the
// portal this engine was originally built around.
func DefaultStatePortalConfig() StatePortalConfig {
	return StatePortalConfig{
		Agency:     "State of Florida",
		Location:   "Florida",
		SearchURL:  "https://vendor.myfloridamarketplace.com/search/bids?q=%s",
		ListingURL: "https://vendor.myfloridamarketplace.com/search/bids?status=open",
		Keywords:   []string{"janitorial", "custodial", "cleaning services"},
	}
}

// StatePortal scrapes the state procurement portal, following each
// search hit to its detail page for contact info and full description.
type StatePortal struct {
	cfg       StatePortalConfig
	newClient ClientFactory
	logger    *slog.Logger
}

// NewStatePortal creates the state portal adapter.
func NewStatePortal(cfg StatePortalConfig, newClient ClientFactory, logger *slog.Logger) *StatePortal {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatePortal{cfg: cfg, newClient: newClient, logger: logger}
}

// Name implements Adapter.
func (s *StatePortal) Name() string { return StatePortalName }

// Scrape runs a keyword search per configured keyword and fetches each
// hit's detail page. When the search flow yields nothing at all, the
// direct listing index is swept instead; state search forms break more
// often than the listing pages behind them.
func (s *StatePortal) Scrape(ctx context.Context) ([]models.ContractInput, error) {
	client := s.newClient()
	var out []models.ContractInput

	for _, keyword := range s.cfg.Keywords {
		if ctx.Err() != nil {
			return dedupeCandidates(out), ctx.Err()
		}
		searchURL := fmt.Sprintf(s.cfg.SearchURL, url.QueryEscape(keyword))
		page, err := client.Get(ctx, searchURL)
		if err != nil {
			s.logger.Warn("state portal search failed", "keyword", keyword, "error", err)
			continue
		}
		out = append(out, s.scrapeResults(ctx, client, page)...)
	}

	if len(out) == 0 {
		s.logger.Info("state portal search yielded nothing, sweeping listing index")
		out = s.scrapeDirect(ctx, client)
	}

	return dedupeCandidates(out), nil
}

// scrapeResults extracts summaries from one search-results page and
// follows each to its detail page.
func (s *StatePortal) scrapeResults(ctx context.Context, client *fetch.Client, page *fetch.Page) []models.ContractInput {
	rows := fetch.SelectCascade(page.Doc,
		"table.search-results tbody tr",
		"div.search-result",
		"tr.bid-row",
		"table tbody tr",
	)

	var out []models.ContractInput
	for _, listing := range listingsFromRows(page, rows) {
		if ctx.Err() != nil {
			return out
		}
		candidate := s.buildContract(ctx, client, listing)
		if candidate == nil {
			continue
		}
		out = append(out, *candidate)
	}
	return out
}

// scrapeDirect is the fallback entry path: fetch the open-bids index
// directly and run the generic cascade over it.
func (s *StatePortal) scrapeDirect(ctx context.Context, client *fetch.Client) []models.ContractInput {
	page, err := client.Get(ctx, s.cfg.ListingURL)
	if err != nil {
		s.logger.Warn("state portal listing index failed", "error", err)
		return nil
	}

	var out []models.ContractInput
	for _, listing := range ExtractListings(page) {
		candidate := s.buildContract(ctx, client, listing)
		if candidate == nil {
			continue
		}
		out = append(out, *candidate)
	}
	return out
}

// buildContract fetches a listing's detail page, fills in the full
// description and contact fields, and validates the result. A nil
// return means the candidate failed validation; rejection is not an
// error.
func (s *StatePortal) buildContract(ctx context.Context, client *fetch.Client, listing Listing) *models.ContractInput {
	c := models.ContractInput{
		Title:    fetch.CleanText(listing.Title),
		Agency:   s.cfg.Agency,
		Location: s.cfg.Location,
		URL:      listing.URL,
		Source:   StatePortalName,
	}
	if num := strings.TrimSpace(listing.Number); num != "" {
		c.SolicitationNumber = &num
	}
	if t, ok := fetch.ParseDate(listing.Text); ok {
		c.Deadline = &t
	}

	detail, err := client.Get(ctx, listing.URL)
	if err != nil {
		// The summary row may still be a valid contract on its own.
		s.logger.Debug("detail page fetch failed", "url", listing.URL, "error", err)
	} else {
		s.fillFromDetail(&c, detail)
	}

	if !s.isValidContract(c) {
		return nil
	}
	return &c
}

func (s *StatePortal) fillFromDetail(c *models.ContractInput, page *fetch.Page) {
	if desc := fetch.SelectCascade(page.Doc,
		"div.bid-description",
		"div#description",
		"section.description",
		"div.content p",
	); desc.Length() > 0 {
		c.Description = fetch.CleanText(desc.Text())
	}

	text := page.Text()
	if c.SolicitationNumber == nil {
		if num := solicitationNumberRe.FindString(text); num != "" {
			c.SolicitationNumber = &num
		}
	}
	if c.Deadline == nil {
		if due := fetch.SelectCascade(page.Doc, "span.due-date", "td.deadline", "div.closing-date"); due.Length() > 0 {
			if t, ok := fetch.ParseDate(due.Text()); ok {
				c.Deadline = &t
			}
		}
	}
	if email, ok := firstEmail(text); ok {
		c.ContactEmail = &email
	}
	if phone, ok := fetch.ExtractPhone(text); ok {
		c.ContactPhone = &phone
	}
	if contact := fetch.SelectCascade(page.Doc, "span.contact-name", "td.contact", "div.contact-info strong"); contact.Length() > 0 {
		name := fetch.CleanText(contact.First().Text())
		if name != "" {
			c.ContactName = &name
		}
	}
}

// isValidContract requires a title, a parseable deadline, and cleaning
// relevance across title and description.
func (s *StatePortal) isValidContract(c models.ContractInput) bool {
	if strings.TrimSpace(c.Title) == "" {
		return false
	}
	if c.Deadline == nil {
		return false
	}
	return fetch.ContainsCleaningKeyword(c.Title + " " + c.Description)
}
