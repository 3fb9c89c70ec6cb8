// Package extract locates records inside fetched pages using a fixed set of
// structural selectors and returns their field values verbatim. No
// normalization happens here; raw text goes out exactly as the page had it.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vigiadata/vigia/internal/fetch"
	"github.com/vigiadata/vigia/internal/record"
)

// Selectors for the product listing layout. The item container defines one
// record; every field inside it is optional and extracted independently, so
// one missing field never suppresses its siblings.
const (
	selProductItem  = "li.ui-search-layout__item"
	selBrand        = "span.ui-search-item__brand-discoverability"
	selTitle        = "h2.ui-search-item__title"
	selPrevPrice    = "s.andes-money-amount--previous span.andes-money-amount__fraction"
	selPrice        = "span.price-tag-fraction, div.ui-search-price__second-line span.andes-money-amount__fraction"
	selDiscount     = "span.ui-search-price__discount"
	selInstallments = "span.ui-search-installments"
	selRating       = "span.ui-search-reviews__rating-number"
	selReviews      = "span.ui-search-reviews__amount"
	selLink         = "a.ui-search-link"
	selPromoted     = "a.ui-search-item__pub-link"
)

// Products parses a listing page into one raw field set per item. A page
// whose HTML cannot be parsed at all is a ParseError for the whole term; a
// parseable page with no matching items yields an empty slice.
func Products(page fetch.Page) ([]record.ProductRaw, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page %s: %w", page.URL, err)
	}

	var out []record.ProductRaw
	doc.Find(selProductItem).Each(func(_ int, item *goquery.Selection) {
		raw := record.ProductRaw{
			Brand:        firstText(item, selBrand),
			Title:        firstText(item, selTitle),
			PrevPrice:    firstText(item, selPrevPrice),
			Price:        firstText(item, selPrice),
			Discount:     firstText(item, selDiscount),
			Installments: firstText(item, selInstallments),
			Rating:       firstText(item, selRating),
			Reviews:      firstText(item, selReviews),
			Promoted:     item.Find(selPromoted).Length() > 0,
		}
		if href, ok := item.Find(selLink).First().Attr("href"); ok {
			raw.URL = strings.TrimSpace(href)
		}
		out = append(out, raw)
	})
	return out, nil
}

func firstText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}
