package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geniass/salewatch/pkg/extract"
	"github.com/geniass/salewatch/pkg/store"
)

var ErrScanInProgress = errors.New("scan already in progress")

// Fetcher returns the body of a product page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Notifier is told about every item that just went on sale.
type Notifier interface {
	NotifySale(ctx context.Context, e SaleEvent) error
}

// Badge displays the number of items currently on sale.
type Badge interface {
	SetCount(n int)
}

// SaleEvent is raised when an item moves from not-on-sale to on-sale.
type SaleEvent struct {
	Folder        string  `json:"folder"`
	URL           string  `json:"url"`
	Title         string  `json:"title,omitempty"`
	PreviousPrice float64 `json:"previousPrice"`
	NewPrice      float64 `json:"newPrice"`
	BaselinePrice float64 `json:"baselinePrice"`
	DiscountPct   float64 `json:"discountPct"`
}

type ScanResult struct {
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished"`
	Checked  int         `json:"checked"`
	Updated  int         `json:"updated"`
	Failed   int         `json:"failed"`
	OnSale   int         `json:"onSale"`
	Events   []SaleEvent `json:"events"`
}

type Config struct {
	Threshold   float64
	Concurrency int
}

type Tracker struct {
	store    *store.Store
	fetcher  Fetcher
	notifier Notifier
	badge    Badge
	logger   *slog.Logger

	threshold   float64
	concurrency int
	now         func() time.Time

	scanning atomic.Bool
}

func New(st *store.Store, fetcher Fetcher, notifier Notifier, badge Badge, cfg Config, logger *slog.Logger) *Tracker {
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:       st,
		fetcher:     fetcher,
		notifier:    notifier,
		badge:       badge,
		logger:      logger.With("component", "tracker"),
		threshold:   cfg.Threshold,
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}
}

// Scan checks every saved item once. Items whose page cannot be fetched or
// has no recognisable price are left as they are until the next scan.
func (t *Tracker) Scan(ctx context.Context) (ScanResult, error) {
	if !t.scanning.CompareAndSwap(false, true) {
		return ScanResult{}, ErrScanInProgress
	}
	defer t.scanning.Store(false)

	res := ScanResult{Started: t.now()}

	folders, err := t.store.Snapshot()
	if err != nil {
		return res, fmt.Errorf("reading store: %w", err)
	}

	prices := t.fetchPrices(ctx, allURLs(folders))
	res.Checked = len(prices.ok) + prices.failed
	res.Failed = prices.failed

	events := make([]SaleEvent, 0)
	err = t.store.Update(func(f store.Folders) error {
		events = events[:0]
		res.Updated = 0
		at := t.now()
		for _, name := range f.Names() {
			items := f[name]
			for i := range items {
				p, ok := prices.ok[items[i].URL]
				if !ok {
					continue
				}
				previous := items[i].LastPrice
				if observe(&items[i], p, at, t.threshold) {
					events = append(events, saleEvent(name, items[i], previous))
				}
				res.Updated++
			}
		}
		res.OnSale = store.SaleCount(f)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("saving scan results: %w", err)
	}
	res.Events = events

	for _, e := range events {
		if err := t.notifier.NotifySale(ctx, e); err != nil {
			t.logger.Warn("sale notification failed", "url", e.URL, "error", err)
		}
	}
	t.badge.SetCount(res.OnSale)

	res.Finished = t.now()
	t.logger.Info("scan finished",
		"checked", res.Checked,
		"updated", res.Updated,
		"failed", res.Failed,
		"new_sales", len(res.Events),
		"on_sale", res.OnSale,
		"duration", res.Finished.Sub(res.Started),
	)
	return res, nil
}

// EnsureBaseline records the first price of every item whose URL is in urls
// and that has no baseline yet, without waiting for the next scan. It returns
// the number of items primed.
func (t *Tracker) EnsureBaseline(ctx context.Context, urls []string) (int, error) {
	wanted := make(map[string]bool, len(urls))
	for _, u := range urls {
		wanted[u] = true
	}

	folders, err := t.store.Snapshot()
	if err != nil {
		return 0, fmt.Errorf("reading store: %w", err)
	}

	var pending []string
	seen := make(map[string]bool)
	for _, items := range folders {
		for _, it := range items {
			if wanted[it.URL] && !it.HasBaseline() && !seen[it.URL] {
				seen[it.URL] = true
				pending = append(pending, it.URL)
			}
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	prices := t.fetchPrices(ctx, pending)
	if len(prices.ok) == 0 {
		return 0, nil
	}

	primed := 0
	err = t.store.Update(func(f store.Folders) error {
		primed = 0
		at := t.now()
		for _, items := range f {
			for i := range items {
				p, ok := prices.ok[items[i].URL]
				if ok && establishBaseline(&items[i], p, at) {
					primed++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("saving baselines: %w", err)
	}

	t.logger.Info("baselines established", "requested", len(urls), "primed", primed)
	return primed, nil
}

// SaleItem is an on-sale item together with its folder.
type SaleItem struct {
	Folder string `json:"folder"`
	store.Item
}

type Summary struct {
	Count int        `json:"count"`
	Items []SaleItem `json:"items"`
}

// Summary lists the items currently on sale, biggest discount first.
func (t *Tracker) Summary() (Summary, error) {
	folders, err := t.store.Snapshot()
	if err != nil {
		return Summary{}, err
	}
	return Summarize(folders), nil
}

// RefreshBadge pushes the current on-sale count to the badge.
func (t *Tracker) RefreshBadge() error {
	folders, err := t.store.Snapshot()
	if err != nil {
		return err
	}
	t.badge.SetCount(store.SaleCount(folders))
	return nil
}

func (t *Tracker) Scanning() bool {
	return t.scanning.Load()
}

// Summarize lists the on-sale items of folders, biggest discount first.
func Summarize(folders store.Folders) Summary {
	s := Summary{Items: []SaleItem{}}
	for name, items := range folders {
		for _, it := range items {
			if it.IsOnSale {
				s.Items = append(s.Items, SaleItem{Folder: name, Item: it})
			}
		}
	}
	sort.Slice(s.Items, func(a, b int) bool {
		x, y := s.Items[a], s.Items[b]
		if x.DiscountPct != y.DiscountPct {
			return x.DiscountPct > y.DiscountPct
		}
		if x.URL != y.URL {
			return x.URL < y.URL
		}
		return x.Folder < y.Folder
	})
	s.Count = len(s.Items)
	return s
}

type fetchedPrices struct {
	ok     map[string]float64
	failed int
}

// fetchPrices fetches and extracts the price of every url, at most
// t.concurrency at a time. Failures are logged and counted, never returned.
func (t *Tracker) fetchPrices(ctx context.Context, urls []string) fetchedPrices {
	res := fetchedPrices{ok: make(map[string]float64, len(urls))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for _, u := range urls {
		u := u // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			p, err := t.checkPrice(gctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.failed++
				t.logger.Warn("price check failed", "url", u, "error", err)
				return nil
			}
			res.ok[u] = p
			return nil
		})
	}
	g.Wait()
	return res
}

func (t *Tracker) checkPrice(ctx context.Context, url string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	body, err := t.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	m, err := extract.Find(string(body))
	if err != nil {
		return 0, err
	}
	t.logger.Debug("price found", "url", url, "price", m.Price, "source", m.Source)
	return m.Price, nil
}

func allURLs(folders store.Folders) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, name := range folders.Names() {
		for _, it := range folders[name] {
			if !seen[it.URL] {
				seen[it.URL] = true
				urls = append(urls, it.URL)
			}
		}
	}
	return urls
}

func saleEvent(folder string, it store.Item, previous *float64) SaleEvent {
	e := SaleEvent{
		Folder:      folder,
		URL:         it.URL,
		Title:       it.Title,
		DiscountPct: it.DiscountPct,
	}
	if it.LastPrice != nil {
		e.NewPrice = *it.LastPrice
	}
	if it.BaselinePrice != nil {
		e.BaselinePrice = *it.BaselinePrice
		e.PreviousPrice = *it.BaselinePrice
	}
	if previous != nil {
		e.PreviousPrice = *previous
	}
	return e
}
