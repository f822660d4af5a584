// Package scraper implements the source adapters that discover cleaning
// and janitorial contract opportunities: the state procurement portal,
// the multi-region portal sweep, and the city/county bid boards. Every
// adapter produces the same contract candidates and leaves persistence
// to the orchestration manager.
package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/mhartsell/bidsweep-go/internal/fetch"
	"github.com/mhartsell/bidsweep-go/internal/models"
)

// Adapter is the common contract every source scraper implements.
// Scrape returns candidates that passed the adapter's own validation;
// an error is returned only when the whole sweep could not run (a
// single bad source never fails a sweep).
type Adapter interface {
	Name() string
	Scrape(ctx context.Context) ([]models.ContractInput, error)
}

// ClientFactory builds a fetch client. Sequential sweeps call it once;
// the parallel region sweep calls it once per worker so each worker
// owns an independent HTTP session and rate-limit clock.
type ClientFactory func() *fetch.Client

// absoluteURL resolves href against the page it appeared on.
func absoluteURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// listingToContract converts a raw listing into a contract candidate,
// applying the shared keyword relevance test against everything we have
// on the listing. Returns false for listings to drop; rejection is not
// an error.
func listingToContract(l Listing, source, agency, location string) (models.ContractInput, bool) {
	title := fetch.CleanText(l.Title)
	if title == "" {
		return models.ContractInput{}, false
	}
	if !fetch.ContainsCleaningKeyword(title + " " + l.Text) {
		return models.ContractInput{}, false
	}

	c := models.ContractInput{
		Title:    title,
		Agency:   agency,
		Location: location,
		URL:      l.URL,
		Source:   source,
	}
	if num := strings.TrimSpace(l.Number); num != "" {
		c.SolicitationNumber = &num
	}
	if t, ok := fetch.ParseDate(l.Text); ok {
		c.Deadline = &t
	}
	if email, found := firstEmail(l.Text); found {
		c.ContactEmail = &email
	}
	if phone, ok := fetch.ExtractPhone(l.Text); ok {
		c.ContactPhone = &phone
	}
	return c, true
}

func firstEmail(text string) (string, bool) {
	emails := fetch.ExtractEmails(text)
	if len(emails) == 0 {
		return "", false
	}
	return emails[0], true
}

// dedupeCandidates drops candidates that describe the same posting:
// same URL and same solicitation number, or same title when no number
// was found. The page-text sweep reports every listing under the page's
// own URL, so the URL alone is not a listing identity. Cross-run dedup
// is the store's job; this only prevents the same posting being
// reported twice within one sweep.
func dedupeCandidates(in []models.ContractInput) []models.ContractInput {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.ContractInput, 0, len(in))
	for _, c := range in {
		key := c.URL + "|"
		if c.SolicitationNumber != nil {
			key += *c.SolicitationNumber
		} else {
			key += c.Title + "|" + c.Agency
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
