package extract

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Source tells which strategy produced a price.
type Source string

const (
	SourceStructuredData Source = "structured-data"
	SourceMetaAmount     Source = "meta-product-price"
	SourceMetaItemprop   Source = "meta-itemprop-price"
	SourceCurrencyText   Source = "currency-text"
	SourceBareNumber     Source = "bare-number"
)

var ErrPriceNotFound = errors.New("price not found")

// Match is a price found on a page.
type Match struct {
	Price  float64
	Source Source
}

var (
	currencyPriceRegex = regexp.MustCompile(`(?:R\$|US\$|\$|€|£|¥|₹)\s?(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`)
	bareDecimalRegex   = regexp.MustCompile(`\b\d{1,3}(?:[.,]\d{3})*[.,]\d{2}\b`)
)

const (
	metaAmountSelector   = `meta[property="product:price:amount"], meta[name="product:price:amount"]`
	metaItempropSelector = `meta[itemprop="price"]`
	structuredSelector   = `script[type="application/ld+json"]`
)

// Price returns the first price found in html, or ErrPriceNotFound.
func Price(html string) (float64, error) {
	m, err := Find(html)
	if err != nil {
		return 0, err
	}
	return m.Price, nil
}

// Find runs the strategies in order: structured data, the product price meta
// tag, the itemprop price meta tag and finally regexes over the page text.
func Find(html string) (Match, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Match{}, fmt.Errorf("parsing html: %w", err)
	}
	return FromDocument(doc)
}

func FromDocument(doc *goquery.Document) (Match, error) {
	var (
		price float64
		found bool
	)
	doc.Find(structuredSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		price, found = structuredDataPrice(s.Text())
		return !found
	})
	if found {
		return Match{Price: price, Source: SourceStructuredData}, nil
	}

	if p, ok := metaPrice(doc, metaAmountSelector); ok {
		return Match{Price: p, Source: SourceMetaAmount}, nil
	}
	if p, ok := metaPrice(doc, metaItempropSelector); ok {
		return Match{Price: p, Source: SourceMetaItemprop}, nil
	}

	text := pageText(doc)
	if m := currencyPriceRegex.FindStringSubmatch(text); m != nil {
		if p, ok := validPrice(ParseNumber(m[1])); ok {
			return Match{Price: p, Source: SourceCurrencyText}, nil
		}
	}
	if m := bareDecimalRegex.FindString(text); m != "" {
		if p, ok := validPrice(ParseNumber(m)); ok {
			return Match{Price: p, Source: SourceBareNumber}, nil
		}
	}

	return Match{}, ErrPriceNotFound
}

func metaPrice(doc *goquery.Document, selector string) (float64, bool) {
	content, ok := doc.Find(selector).First().Attr("content")
	if !ok {
		return 0, false
	}
	return validPrice(ParseNumber(content))
}

func pageText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}

// zero or negative amounts are placeholders on most shops
func validPrice(p float64, ok bool) (float64, bool) {
	if !ok || p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
		return 0, false
	}
	return p, true
}
