package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"parimarket/internal/config"
)

func TestParseTicker(t *testing.T) {
	price, err := ParseTicker([]byte(`{"symbol":"BTCUSDT","price":"68123.45"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := decimal.RequireFromString("68123.45")
	if !price.Equal(want) {
		t.Fatalf("price=%s want %s", price, want)
	}
}

func TestParseTickerRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not_json", `price up`},
		{"missing_price", `{"symbol":"BTCUSDT"}`},
		{"bad_price", `{"symbol":"BTCUSDT","price":"n/a"}`},
		{"zero_price", `{"symbol":"BTCUSDT","price":"0"}`},
		{"negative_price", `{"symbol":"BTCUSDT","price":"-5"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTicker([]byte(tc.body)); err == nil {
				t.Fatalf("parse %q succeeded, want error", tc.body)
			}
		})
	}
}

func TestFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol=%q want BTCUSDT", got)
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"100.5"}`))
	}))
	defer srv.Close()

	client := NewClient(config.PriceFeedConfig{Endpoint: srv.URL, Timeout: 5 * time.Second})
	price, err := client.FetchPrice(context.Background(), "btcusdt")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("100.5")) {
		t.Fatalf("price=%s want 100.5", price)
	}
}

func TestFetchPriceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "symbol not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(config.PriceFeedConfig{Endpoint: srv.URL, Timeout: 5 * time.Second})
	if _, err := client.FetchPrice(context.Background(), "NOPE"); err == nil {
		t.Fatal("fetch succeeded, want error")
	}
}

func TestFetchPriceRequiresSymbol(t *testing.T) {
	client := NewClient(config.PriceFeedConfig{Endpoint: "http://localhost:1", Timeout: time.Second})
	if _, err := client.FetchPrice(context.Background(), "  "); err == nil {
		t.Fatal("fetch with blank symbol succeeded, want error")
	}
}
