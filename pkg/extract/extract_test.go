package extract

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func productPage(head, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
	<head>
		<title>Product</title>
		%s
	</head>
	<body>
		%s
	</body>
</html>`, head, body)
}

func TestFindStructuredDataWinsOverMeta(t *testing.T) {
	page := productPage(`
		<meta property="product:price:amount" content="149.90">
		<script type="application/ld+json">
		{"@context": "https://schema.org", "@type": "Product", "name": "Kettle",
		 "offers": {"@type": "Offer", "price": "99.90", "priceCurrency": "BRL"}}
		</script>`,
		`<p>R$ 12,00</p>`)

	m, err := Find(page)
	if err != nil {
		t.Fatal(err)
	}
	if m.Price != 99.9 {
		t.Errorf("price = %v, want 99.9", m.Price)
	}
	if m.Source != SourceStructuredData {
		t.Errorf("source = %q, want %q", m.Source, SourceStructuredData)
	}
}

func TestFindStructuredData(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
	}{
		{
			name:    "numeric offer price",
			payload: `{"@type": "Product", "offers": {"price": 1299.5}}`,
			want:    1299.5,
		},
		{
			name:    "offers array first offer wins",
			payload: `{"@type": "Product", "offers": [{"price": "10,00"}, {"price": "20,00"}]}`,
			want:    10,
		},
		{
			name:    "aggregate offer low price",
			payload: `{"@type": "Product", "offers": {"@type": "AggregateOffer", "lowPrice": "59.90", "highPrice": "89.90"}}`,
			want:    59.9,
		},
		{
			name:    "singular offer key",
			payload: `{"offer": {"price": "5.50"}}`,
			want:    5.5,
		},
		{
			name:    "direct price amount",
			payload: `{"@type": "Product", "priceAmount": "1.234,56"}`,
			want:    1234.56,
		},
		{
			name:    "nested in graph",
			payload: `{"@graph": [{"@type": "WebPage", "name": "x"}, {"@type": "Product", "offers": {"price": "42"}}]}`,
			want:    42,
		},
		{
			name:    "top level array",
			payload: `[{"@type": "BreadcrumbList"}, {"@type": "Product", "currentPrice": 7.25}]`,
			want:    7.25,
		},
		{
			name:    "offers checked before direct price",
			payload: `{"price": "1", "offers": {"price": "2"}}`,
			want:    2,
		},
		{
			name:    "nested values in document order",
			payload: `{"b": {"price": "3"}, "a": {"price": "4"}}`,
			want:    3,
		},
		{
			name: "trailing commas and comments",
			payload: `{
				// generated by the shop theme
				"@type": "Product",
				/* sale */
				"offers": {"price": "19.99",},
			}`,
			want: 19.99,
		},
		{
			name:    "html comment wrapper",
			payload: `<!-- {"offers": {"price": "8.00"}} -->`,
			want:    8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := productPage(`<script type="application/ld+json">`+tt.payload+`</script>`, "")
			m, err := Find(page)
			if err != nil {
				t.Fatal(err)
			}
			if m.Source != SourceStructuredData {
				t.Errorf("source = %q, want %q", m.Source, SourceStructuredData)
			}
			if m.Price != tt.want {
				t.Errorf("price = %v, want %v", m.Price, tt.want)
			}
		})
	}
}

func TestFindMalformedStructuredDataFallsThrough(t *testing.T) {
	page := productPage(`
		<script type="application/ld+json">{"offers": {"price": </script>
		<meta property="product:price:amount" content="49.99">`, "")

	m, err := Find(page)
	if err != nil {
		t.Fatal(err)
	}
	if m.Price != 49.99 || m.Source != SourceMetaAmount {
		t.Errorf("got %+v, want 49.99 from %q", m, SourceMetaAmount)
	}
}

func TestFindSecondScriptBlock(t *testing.T) {
	page := productPage(`
		<script type="application/ld+json">{"@type": "Organization", "name": "Shop"}</script>
		<script type="application/ld+json">{"@type": "Product", "offers": {"price": "31.00"}}</script>`, "")

	got, err := Price(page)
	if err != nil {
		t.Fatal(err)
	}
	if got != 31 {
		t.Errorf("price = %v, want 31", got)
	}
}

func TestFindMetaTags(t *testing.T) {
	tests := []struct {
		name   string
		head   string
		want   float64
		source Source
	}{
		{
			name:   "product price amount",
			head:   `<meta property="product:price:amount" content="49.99">`,
			want:   49.99,
			source: SourceMetaAmount,
		},
		{
			name:   "product price amount brazilian",
			head:   `<meta property="product:price:amount" content="1.299,00">`,
			want:   1299,
			source: SourceMetaAmount,
		},
		{
			name:   "itemprop price",
			head:   `<meta itemprop="price" content="250.00">`,
			want:   250,
			source: SourceMetaItemprop,
		},
		{
			name:   "amount preferred over itemprop",
			head:   `<meta itemprop="price" content="250.00"><meta property="product:price:amount" content="240.00">`,
			want:   240,
			source: SourceMetaAmount,
		},
		{
			name:   "empty amount falls back to itemprop",
			head:   `<meta property="product:price:amount" content=""><meta itemprop="price" content="12.30">`,
			want:   12.3,
			source: SourceMetaItemprop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Find(productPage(tt.head, ""))
			if err != nil {
				t.Fatal(err)
			}
			if m.Price != tt.want || m.Source != tt.source {
				t.Errorf("got %+v, want %v from %q", m, tt.want, tt.source)
			}
		})
	}
}

func TestFindTextHeuristics(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   float64
		source Source
	}{
		{
			name:   "real with thousands",
			body:   `<div class="price">Por   R$&nbsp;1.234,56 à vista</div>`,
			want:   1234.56,
			source: SourceCurrencyText,
		},
		{
			name:   "dollar",
			body:   `<span>Now only $19.99!</span>`,
			want:   19.99,
			source: SourceCurrencyText,
		},
		{
			name:   "currency beats earlier bare number",
			body:   `<p>Rated 4,50 by buyers</p><p>€ 30,00</p>`,
			want:   30,
			source: SourceCurrencyText,
		},
		{
			name:   "bare decimal",
			body:   `<p>Preço:</p>
			<p>
				89,90
			</p>`,
			want:   89.9,
			source: SourceBareNumber,
		},
		{
			name:   "script contents ignored",
			body:   `<script>var price = "R$ 1,00";</script><p>R$ 5,00</p>`,
			want:   5,
			source: SourceCurrencyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Find(productPage("", tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if m.Price != tt.want || m.Source != tt.source {
				t.Errorf("got %+v, want %v from %q", m, tt.want, tt.source)
			}
		})
	}
}

func TestFindNotFound(t *testing.T) {
	pages := []string{
		"",
		productPage("", "<p>Out of stock</p>"),
		productPage(`<script type="application/ld+json">{"offers": {"price": "0"}}</script>`, ""),
		productPage(`<meta property="product:price:amount" content="consulte">`, ""),
	}
	for i, page := range pages {
		if _, err := Price(page); !errors.Is(err, ErrPriceNotFound) {
			t.Errorf("page %d: err = %v, want ErrPriceNotFound", i, err)
		}
	}
}

func TestFindDeeplyNestedPayloadIsBounded(t *testing.T) {
	depth := maxStructuredDepth * 4
	payload := strings.Repeat(`{"a":`, depth) + `{"price": "1.00"}` + strings.Repeat("}", depth)
	page := productPage(`<script type="application/ld+json">`+payload+`</script>`, "")

	if _, err := Price(page); !errors.Is(err, ErrPriceNotFound) {
		t.Errorf("err = %v, want ErrPriceNotFound", err)
	}
}
