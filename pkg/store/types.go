package store

import (
	"sort"
	"time"
)

// Item is a tracked product page. Timestamps are milliseconds since the epoch
// so exported state stays compatible with the browser extension's format.
type Item struct {
	URL           string   `json:"url"`
	Title         string   `json:"title,omitempty"`
	BaselinePrice *float64 `json:"baselinePrice,omitempty"`
	LastPrice     *float64 `json:"lastPrice,omitempty"`
	IsOnSale      bool     `json:"isOnSale"`
	DiscountPct   float64  `json:"discountPct"`
	LastCheckedAt int64    `json:"lastCheckedAt,omitempty"`
	AddedAt       int64    `json:"addedAt"`
}

func (i Item) HasBaseline() bool {
	return i.BaselinePrice != nil
}

func (i Item) Added() time.Time {
	return time.UnixMilli(i.AddedAt)
}

// LastChecked returns the zero time when the item was never checked.
func (i Item) LastChecked() time.Time {
	if i.LastCheckedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(i.LastCheckedAt)
}

// Folders maps a folder name to its items.
type Folders map[string][]Item

// State is the persisted record, also the import/export format.
type State struct {
	Folders Folders `json:"folders"`
}

// Names returns the folder names in ascending order.
func (f Folders) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find returns the index of url in folder, or -1.
func (f Folders) Find(folder, url string) int {
	for i, it := range f[folder] {
		if it.URL == url {
			return i
		}
	}
	return -1
}

// Clone deep copies the mapping, including the price pointers.
func (f Folders) Clone() Folders {
	out := make(Folders, len(f))
	for name, items := range f {
		cp := make([]Item, len(items))
		for i, it := range items {
			cp[i] = it
			if it.BaselinePrice != nil {
				v := *it.BaselinePrice
				cp[i].BaselinePrice = &v
			}
			if it.LastPrice != nil {
				v := *it.LastPrice
				cp[i].LastPrice = &v
			}
		}
		out[name] = cp
	}
	return out
}

// SaleCount counts the on-sale items across all folders.
func SaleCount(f Folders) int {
	n := 0
	for _, items := range f {
		for _, it := range items {
			if it.IsOnSale {
				n++
			}
		}
	}
	return n
}

// SortedByRecency returns a copy of items, most recently added first.
func SortedByRecency(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].AddedAt > out[b].AddedAt
	})
	return out
}
