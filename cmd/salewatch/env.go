package main

import (
	"fmt"

	"github.com/geniass/salewatch/pkg/notify"
	"github.com/geniass/salewatch/pkg/scraper"
	"github.com/geniass/salewatch/pkg/store"
	"github.com/geniass/salewatch/pkg/tracker"
	"github.com/geniass/salewatch/pkg/web"
)

// env holds everything a command needs, built from the loaded config.
type env struct {
	store   *store.Store
	tracker *tracker.Tracker
	badge   *notify.Badge
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", cfg.DBPath, err)
	}
	if err := st.EnsureDefaultFolder(cfg.DefaultFolder); err != nil {
		st.Close()
		return nil, fmt.Errorf("creating default folder: %w", err)
	}
	return st, nil
}

func newEnv() (*env, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}

	s, err := scraper.NewScraper(scraper.Config{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.FetchTimeout,
		Parallelism: cfg.Concurrency,
		RandomDelay: cfg.FetchRandomDelay,
	}, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating scraper: %w", err)
	}

	badge := notify.NewBadge(logger)
	tr := tracker.New(st, s, notify.NewLogNotifier(logger), badge, tracker.Config{
		Threshold:   cfg.SaleThreshold,
		Concurrency: cfg.Concurrency,
	}, logger)

	return &env{store: st, tracker: tr, badge: badge}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func baseContext(pathPrefix string) web.BaseContext {
	return web.BaseContext{PathPrefix: pathPrefix, Location: cfg.Location()}
}
