package tracker

import (
	"testing"
	"time"

	"github.com/geniass/salewatch/pkg/store"
)

func TestObserveEstablishesBaseline(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	it := store.Item{URL: "https://shop.example/p/1", AddedAt: 1}

	if observe(&it, 100, at, DefaultThreshold) {
		t.Error("baseline establishment raised a sale event")
	}
	if it.BaselinePrice == nil || *it.BaselinePrice != 100 {
		t.Errorf("baseline = %v, want 100", it.BaselinePrice)
	}
	if it.LastPrice == nil || *it.LastPrice != 100 {
		t.Errorf("last price = %v, want 100", it.LastPrice)
	}
	if it.IsOnSale || it.DiscountPct != 0 {
		t.Errorf("on sale = %v discount = %v, want false 0", it.IsOnSale, it.DiscountPct)
	}
	if it.LastCheckedAt != at.UnixMilli() {
		t.Errorf("last checked = %d, want %d", it.LastCheckedAt, at.UnixMilli())
	}
}

func TestObserveTransitions(t *testing.T) {
	it := store.Item{URL: "https://shop.example/p/1"}
	at := time.Now()
	observe(&it, 100, at, DefaultThreshold)

	steps := []struct {
		price     float64
		wantEvent bool
		wantSale  bool
		wantPct   float64
	}{
		{price: 99.5, wantEvent: false, wantSale: false, wantPct: 0},
		{price: 89, wantEvent: true, wantSale: true, wantPct: 11},
		{price: 80, wantEvent: false, wantSale: true, wantPct: 20},
		{price: 100, wantEvent: false, wantSale: false, wantPct: 0},
		{price: 120, wantEvent: false, wantSale: false, wantPct: 0},
		{price: 75.55, wantEvent: true, wantSale: true, wantPct: 24.5},
	}

	for i, s := range steps {
		event := observe(&it, s.price, at, DefaultThreshold)
		if event != s.wantEvent {
			t.Errorf("step %d (%v): event = %v, want %v", i, s.price, event, s.wantEvent)
		}
		if it.IsOnSale != s.wantSale || it.DiscountPct != s.wantPct {
			t.Errorf("step %d (%v): on sale = %v discount = %v, want %v %v", i, s.price, it.IsOnSale, it.DiscountPct, s.wantSale, s.wantPct)
		}
		if *it.BaselinePrice != 100 {
			t.Fatalf("step %d: baseline moved to %v", i, *it.BaselinePrice)
		}
		if *it.LastPrice != s.price {
			t.Errorf("step %d: last price = %v, want %v", i, *it.LastPrice, s.price)
		}
	}
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		baseline, current float64
		wantPct           float64
		wantSale          bool
	}{
		{100, 89, 11, true},
		{100, 80, 20, true},
		{100, 99.5, 0, false},
		{100, 99, 0, false},
		{100, 98.99, 1, true},
		{1299.9, 999.9, 23.1, true},
		{100, 100, 0, false},
		{100, 150, 0, false},
		{0, 10, 0, false},
	}

	for _, tt := range tests {
		pct, sale := discount(tt.baseline, tt.current, DefaultThreshold)
		if pct != tt.wantPct || sale != tt.wantSale {
			t.Errorf("discount(%v, %v) = %v %v, want %v %v", tt.baseline, tt.current, pct, sale, tt.wantPct, tt.wantSale)
		}
	}
}

func TestEstablishBaselineOnlyOnce(t *testing.T) {
	it := store.Item{URL: "https://shop.example/p/1"}
	at := time.Now()

	if !establishBaseline(&it, 50, at) {
		t.Fatal("first baseline not applied")
	}
	if establishBaseline(&it, 10, at) {
		t.Error("baseline applied twice")
	}
	if *it.BaselinePrice != 50 || *it.LastPrice != 50 {
		t.Errorf("baseline = %v last = %v, want 50 50", *it.BaselinePrice, *it.LastPrice)
	}
}
