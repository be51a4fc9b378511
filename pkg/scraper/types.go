package scraper

import (
	"log/slog"
	"time"

	"github.com/gocolly/colly/v2"
)

type Scraper struct {
	colly  *colly.Collector
	logger *slog.Logger
}

type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Parallelism int
	RandomDelay time.Duration
}
