// Package notify holds the collaborators the tracker reports to: sale
// notifications and the on-sale badge.
package notify

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/geniass/salewatch/pkg/tracker"
)

// LogNotifier writes one structured record per sale event.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) NotifySale(ctx context.Context, e tracker.SaleEvent) error {
	n.logger.InfoContext(ctx, "item on sale",
		"folder", e.Folder,
		"url", e.URL,
		"title", e.Title,
		"previous_price", e.PreviousPrice,
		"new_price", e.NewPrice,
		"discount_pct", e.DiscountPct,
	)
	return nil
}

// Badge keeps the text shown next to the extension icon: the number of
// items on sale, or nothing when there are none.
type Badge struct {
	mu     sync.RWMutex
	count  int
	logger *slog.Logger
}

func NewBadge(logger *slog.Logger) *Badge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Badge{logger: logger.With("component", "badge")}
}

func (b *Badge) SetCount(n int) {
	b.mu.Lock()
	changed := b.count != n
	b.count = n
	b.mu.Unlock()

	if changed {
		b.logger.Info("badge updated", "text", BadgeText(n))
	}
}

func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

func (b *Badge) Text() string {
	return BadgeText(b.Count())
}

func BadgeText(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
