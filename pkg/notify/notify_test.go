package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/geniass/salewatch/pkg/tracker"
)

func TestBadgeText(t *testing.T) {
	b := NewBadge(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if b.Text() != "" {
		t.Errorf("initial text = %q, want empty", b.Text())
	}
	b.SetCount(3)
	if b.Text() != "3" || b.Count() != 3 {
		t.Errorf("text = %q count = %d, want 3", b.Text(), b.Count())
	}
	b.SetCount(0)
	if b.Text() != "" {
		t.Errorf("text = %q after reset, want empty", b.Text())
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := n.NotifySale(context.Background(), tracker.SaleEvent{
		Folder:        "geral",
		URL:           "https://shop.example/p/1",
		PreviousPrice: 100,
		NewPrice:      89,
		DiscountPct:   11,
	})
	if err != nil {
		t.Fatal(err)
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log record is not JSON: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "item on sale" || rec["folder"] != "geral" || rec["new_price"] != 89.0 || rec["component"] != "notify" {
		t.Errorf("record = %v", rec)
	}
}
