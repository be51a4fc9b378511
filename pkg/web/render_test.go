package web

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/geniass/salewatch/pkg/store"
	"github.com/geniass/salewatch/pkg/tracker"
)

func price(v float64) *float64 {
	return &v
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSummary(&buf, SummaryContext{
		Title:   "On sale",
		Summary: tracker.Summary{Items: []tracker.SaleItem{}},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Nothing on sale right now.") {
		t.Errorf("empty summary not rendered:\n%s", out)
	}
	if !strings.Contains(out, "Last updated: never") {
		t.Errorf("zero time not rendered as never:\n%s", out)
	}
}

func TestRenderSummaryItems(t *testing.T) {
	sp, _ := time.LoadLocation("America/Sao_Paulo")
	var buf bytes.Buffer
	err := RenderSummary(&buf, SummaryContext{
		BaseContext: BaseContext{PathPrefix: "/salewatch", Location: sp},
		Title:       "On sale",
		LastUpdated: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
		BadgeText:   "1",
		Summary: tracker.Summary{Count: 1, Items: []tracker.SaleItem{{
			Folder: "casa",
			Item: store.Item{
				URL:           "https://shop.example/p/1?a=1&b=2",
				Title:         "Cafeteira <Pro>",
				BaselinePrice: price(100),
				LastPrice:     price(79.9),
				IsOnSale:      true,
				DiscountPct:   20.1,
			},
		}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`href="/salewatch/folders"`,
		"Cafeteira &lt;Pro&gt;",
		"100.00",
		"79.90",
		"-20.1%",
		`<span class="pill">1</span>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if sp != nil && !strings.Contains(out, "2024-03-01 12:00") {
		t.Errorf("last updated not in configured location:\n%s", out)
	}
}

func TestNewFoldersContext(t *testing.T) {
	folders := store.Folders{
		"zeta": {},
		"alfa": {
			{URL: "https://a.example/1", AddedAt: 1000},
			{URL: "https://a.example/2", AddedAt: 3000},
		},
	}
	c := NewFoldersContext(BaseContext{}, folders)
	if len(c.Folders) != 2 || c.Folders[0].Name != "alfa" || c.Folders[1].Name != "zeta" {
		t.Fatalf("folders = %+v", c.Folders)
	}
	if c.Folders[0].Items[0].URL != "https://a.example/2" {
		t.Errorf("items not newest first: %+v", c.Folders[0].Items)
	}

	var buf bytes.Buffer
	if err := RenderFolders(&buf, c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Empty") {
		t.Errorf("empty folder not marked:\n%s", buf.String())
	}
}
