package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mhartsell/bidsweep-go/internal/fetch"
)

// Listing is one raw candidate extracted from a source page, before
// validation and keyword filtering.
type Listing struct {
	Title  string
	URL    string
	Number string
	// Text is the full row/snippet text the listing came from; used
	// for keyword, deadline and contact extraction.
	Text string
}

// Strategy extracts raw listings from a page. Strategies are pure over
// the document; a strategy that finds nothing returns an empty slice.
type Strategy func(page *fetch.Page) []Listing

// extractionCascade is the ordered strategy list applied to every
// region and local-board page: site-shaped bid tables first, generic
// table/list rows next, and a regex sweep over the page text as the
// last resort. The first strategy producing listings wins.
var extractionCascade = []Strategy{
	bidTableStrategy,
	genericRowStrategy,
	numberPatternStrategy,
}

// ExtractListings runs the extraction cascade and returns the first
// non-empty result.
func ExtractListings(page *fetch.Page) []Listing {
	for _, strategy := range extractionCascade {
		if listings := strategy(page); len(listings) > 0 {
			return listings
		}
	}
	return nil
}

// bidTableStrategy targets the CSS classes procurement CMSes actually
// use for bid tables.
func bidTableStrategy(page *fetch.Page) []Listing {
	sel := fetch.SelectCascade(page.Doc,
		"table.bids tbody tr",
		"table.solicitations tbody tr",
		"tr.bid-row",
		"div.bid-listing",
		"div.solicitation-item",
		"li.opportunity",
		"table[id*='bid'] tbody tr",
		"table[class*='solicitation'] tr",
	)
	return listingsFromRows(page, sel)
}

// genericRowStrategy falls back to any table row or list item carrying
// a link, which covers hand-rolled municipal pages.
func genericRowStrategy(page *fetch.Page) []Listing {
	sel := fetch.SelectCascade(page.Doc, "table tr", "ul li", "ol li")
	return listingsFromRows(page, sel)
}

var solicitationNumberRe = regexp.MustCompile(`\b(?:RFP|RFQ|ITB|IFB|ITN|BID|SOL)[-#/\s]?\d[\d\w./-]{2,}\b`)

// numberPatternStrategy sweeps the page text for solicitation-number
// shaped tokens. It produces low-fidelity listings (no URL beyond the
// page itself) but keeps a badly structured source from going dark.
func numberPatternStrategy(page *fetch.Page) []Listing {
	var out []Listing
	seen := make(map[string]struct{})
	for _, line := range strings.Split(page.Text(), "\n") {
		line = fetch.CleanText(line)
		num := solicitationNumberRe.FindString(line)
		if num == "" {
			continue
		}
		if _, dup := seen[num]; dup {
			continue
		}
		seen[num] = struct{}{}
		out = append(out, Listing{
			Title:  line,
			URL:    page.URL,
			Number: num,
			Text:   line,
		})
	}
	return out
}

// listingsFromRows converts row elements into listings. Rows without a
// link are skipped; a row whose parse goes sideways is dropped alone,
// never failing the page.
func listingsFromRows(page *fetch.Page, rows *goquery.Selection) []Listing {
	var out []Listing
	rows.Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a[href]").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		target := absoluteURL(page.URL, href)
		if target == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		title := fetch.CleanText(link.Text())
		rowText := fetch.CleanText(row.Text())
		if title == "" {
			title = rowText
		}
		if title == "" {
			return
		}

		out = append(out, Listing{
			Title:  title,
			URL:    target,
			Number: solicitationNumberRe.FindString(rowText),
			Text:   rowText,
		})
	})
	return out
}
