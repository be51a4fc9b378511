package extract

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// maxStructuredDepth bounds the recursion over untrusted JSON-LD payloads.
const maxStructuredDepth = 32

var (
	offerKeys       = []string{"offers", "offer"}
	offerPriceKeys  = []string{"price", "lowPrice", "highPrice"}
	directPriceKeys = []string{"price", "priceAmount", "currentPrice"}
)

var (
	commentWrapperRegex = regexp.MustCompile(`^\s*(?:<!--|<!\[CDATA\[)|(?:-->|\]\]>)\s*$`)
	blockCommentRegex   = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRegex    = regexp.MustCompile(`(?m)^\s*//.*$`)
	trailingCommaRegex  = regexp.MustCompile(`,(\s*[}\]])`)
)

// structuredDataPrice searches one JSON-LD payload for a price.
func structuredDataPrice(payload string) (float64, bool) {
	payload = strings.TrimSpace(payload)
	if !gjson.Valid(payload) {
		payload = cleanJSON(payload)
		if !gjson.Valid(payload) {
			return 0, false
		}
	}
	return findPrice(gjson.Parse(payload), 0)
}

// cleanJSON removes what shops commonly leave in hand written JSON-LD blocks.
func cleanJSON(s string) string {
	s = commentWrapperRegex.ReplaceAllString(s, "")
	s = blockCommentRegex.ReplaceAllString(s, "")
	s = lineCommentRegex.ReplaceAllString(s, "")
	s = trailingCommaRegex.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// findPrice walks the payload depth first in document order. On an object the
// offers are checked first, then the price fields on the object itself, and
// only then the nested values.
func findPrice(r gjson.Result, depth int) (float64, bool) {
	if depth > maxStructuredDepth {
		return 0, false
	}

	var (
		price float64
		found bool
	)
	switch {
	case r.IsArray():
		r.ForEach(func(_, v gjson.Result) bool {
			price, found = findPrice(v, depth+1)
			return !found
		})
		return price, found

	case r.IsObject():
		for _, key := range offerKeys {
			if p, ok := offerPrice(objectField(r, key)); ok {
				return p, true
			}
		}
		if p, ok := firstPriceField(r, directPriceKeys); ok {
			return p, true
		}
		r.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() || v.IsArray() {
				price, found = findPrice(v, depth+1)
			}
			return !found
		})
		return price, found
	}
	return 0, false
}

func offerPrice(offers gjson.Result) (float64, bool) {
	switch {
	case offers.IsObject():
		return firstPriceField(offers, offerPriceKeys)
	case offers.IsArray():
		var (
			price float64
			found bool
		)
		offers.ForEach(func(_, offer gjson.Result) bool {
			if offer.IsObject() {
				price, found = firstPriceField(offer, offerPriceKeys)
			}
			return !found
		})
		return price, found
	}
	return 0, false
}

func firstPriceField(obj gjson.Result, keys []string) (float64, bool) {
	for _, key := range keys {
		if p, ok := priceValue(objectField(obj, key)); ok {
			return p, true
		}
	}
	return 0, false
}

func priceValue(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return validPrice(v.Float(), true)
	case gjson.String:
		return validPrice(ParseNumber(v.Str))
	}
	return 0, false
}

// objectField looks a key up without going through gjson path syntax.
func objectField(obj gjson.Result, key string) gjson.Result {
	var field gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			field = v
			return false
		}
		return true
	})
	return field
}
