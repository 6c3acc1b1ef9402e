package fetch

import (
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

func TestConvertBars(t *testing.T) {
	ts := time.Date(2024, 5, 1, 5, 0, 0, 0, time.UTC)
	cryptoBars := []marketdata.CryptoBar{
		{
			Timestamp:  ts,
			Open:       60000,
			High:       61500,
			Low:        59800,
			Close:      61000,
			Volume:     1234.5,
			TradeCount: 98765,
			VWAP:       60700,
		},
	}

	bars := convertBars("BTC/USD", cryptoBars)
	if len(bars) != 1 {
		t.Fatalf("convertBars returned %d bars, want 1", len(bars))
	}
	b := bars[0]
	if b.Symbol != "BTC/USD" {
		t.Errorf("Symbol = %q, want BTC/USD", b.Symbol)
	}
	if !b.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", b.Timestamp, ts)
	}
	if b.Close != 61000 {
		t.Errorf("Close = %v, want 61000", b.Close)
	}
	if b.Volume != 1234.5 {
		t.Errorf("Volume = %v, want 1234.5", b.Volume)
	}
	if b.TradeCount != 98765 {
		t.Errorf("TradeCount = %v, want 98765", b.TradeCount)
	}
}

func TestConvertBarsEmpty(t *testing.T) {
	if got := convertBars("ETH/USD", nil); len(got) != 0 {
		t.Errorf("convertBars(nil) = %d bars, want 0", len(got))
	}
}
