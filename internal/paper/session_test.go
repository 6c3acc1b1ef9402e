package paper

import (
	"math"
	"testing"
	"time"

	"github.com/SNMiguel/cryptobot/internal/domain"
)

func signaledBars(closes []float64, signals []domain.Signal) []domain.SignaledBar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.SignaledBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.SignaledBar{
			Bar: domain.Bar{
				Symbol:    "BTC/USD",
				Timestamp: base.AddDate(0, 0, i),
				Open:      c, High: c, Low: c, Close: c,
			},
			Signal: signals[i],
		}
	}
	return bars
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestSessionStopLoss(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
		StopLossPct:          0.05,
	}, nil)

	bars := signaledBars(
		[]float64{100, 96, 94},
		[]domain.Signal{domain.SignalBuy, domain.SignalHold, domain.SignalHold},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Portfolio.History) != 2 {
		t.Fatalf("ledger length = %d, want 2", len(res.Portfolio.History))
	}
	closeTrade := res.Portfolio.History[1]
	if closeTrade.Reason != domain.CloseReasonStopLoss {
		t.Errorf("close reason = %q, want STOP_LOSS", closeTrade.Reason)
	}
	if closeTrade.Price != 94 {
		t.Errorf("close price = %v, want 94", closeTrade.Price)
	}
	// 950 spent at 100 (9.5 units, stop at 95), sold at 94 for 893.
	if !almostEqual(res.FinalValue, 943, 1e-9) {
		t.Errorf("final value = %v, want 943", res.FinalValue)
	}
}

func TestSessionTakeProfit(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
		StopLossPct:          0.05,
		TakeProfitPct:        0.10,
	}, nil)

	bars := signaledBars(
		[]float64{100, 111},
		[]domain.Signal{domain.SignalBuy, domain.SignalHold},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := res.Portfolio.History[1].Reason; got != domain.CloseReasonTakeProfit {
		t.Errorf("close reason = %q, want TAKE_PROFIT", got)
	}
	// 9.5 units sold at 111.
	if !almostEqual(res.FinalValue, 50+9.5*111, 1e-9) {
		t.Errorf("final value = %v, want %v", res.FinalValue, 50+9.5*111)
	}
}

func TestSessionStopBeatsSignal(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
		StopLossPct:          0.05,
	}, nil)

	// The bar both breaches the stop and carries a SELL; the stop wins.
	bars := signaledBars(
		[]float64{100, 90},
		[]domain.Signal{domain.SignalBuy, domain.SignalSell},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Portfolio.History[1].Reason; got != domain.CloseReasonStopLoss {
		t.Errorf("close reason = %q, want STOP_LOSS", got)
	}
}

func TestSessionSignalClose(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
	}, nil)

	bars := signaledBars(
		[]float64{100, 105},
		[]domain.Signal{domain.SignalBuy, domain.SignalSell},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := res.Portfolio.History[1].Reason; got != domain.CloseReasonSignal {
		t.Errorf("close reason = %q, want SIGNAL", got)
	}
	if !almostEqual(res.FinalValue, 50+9.5*105, 1e-9) {
		t.Errorf("final value = %v, want %v", res.FinalValue, 50+9.5*105)
	}
	if res.Report.NumCompletedTrades != 1 {
		t.Errorf("completed trades = %d, want 1", res.Report.NumCompletedTrades)
	}
}

func TestSessionForceCloseAtEnd(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
	}, nil)

	bars := signaledBars(
		[]float64{100, 102},
		[]domain.Signal{domain.SignalBuy, domain.SignalHold},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Portfolio.Positions) != 0 {
		t.Fatalf("open positions after session = %d, want 0", len(res.Portfolio.Positions))
	}
	if len(res.Portfolio.History) != 2 {
		t.Fatalf("ledger length = %d, want 2", len(res.Portfolio.History))
	}
	last := res.Portfolio.History[1]
	if last.Reason != domain.CloseReasonEndOfSession {
		t.Errorf("close reason = %q, want END_OF_SESSION", last.Reason)
	}
	if last.Price != 102 {
		t.Errorf("force-close price = %v, want 102", last.Price)
	}
	if !almostEqual(res.FinalValue, 50+9.5*102, 1e-9) {
		t.Errorf("final value = %v, want %v", res.FinalValue, 50+9.5*102)
	}
}

func TestSessionDuplicateOpenIsNoop(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
	}, nil)

	bars := signaledBars(
		[]float64{100, 101, 102},
		[]domain.Signal{domain.SignalBuy, domain.SignalBuy, domain.SignalHold},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One open, one force close; the second BUY must not stack.
	if len(res.Portfolio.History) != 2 {
		t.Fatalf("ledger length = %d, want 2", len(res.Portfolio.History))
	}
	if got := res.Portfolio.History[0].Quantity; !almostEqual(got, 9.5, 1e-9) {
		t.Errorf("quantity = %v, want 9.5", got)
	}
}

func TestSessionInsufficientFundsIsNoop(t *testing.T) {
	s := NewSession(Config{InitialCapital: 0}, nil)

	bars := signaledBars([]float64{100}, []domain.Signal{domain.SignalBuy})
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Portfolio.History) != 0 {
		t.Errorf("ledger length = %d, want 0", len(res.Portfolio.History))
	}
}

func TestSessionRiskCap(t *testing.T) {
	// 9.5 units with a 5% stop risks 47.5, i.e. 4.75% of capital.
	cfg := Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
		StopLossPct:          0.05,
		MaxPortfolioRiskPct:  4,
	}
	s := NewSession(cfg, nil)
	bars := signaledBars([]float64{100}, []domain.Signal{domain.SignalBuy})
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Portfolio.History) != 0 {
		t.Errorf("ledger under tight cap = %d entries, want 0", len(res.Portfolio.History))
	}

	cfg.MaxPortfolioRiskPct = 5
	s = NewSession(cfg, nil)
	res, err = s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Portfolio.History) != 2 {
		t.Errorf("ledger under loose cap = %d entries, want 2", len(res.Portfolio.History))
	}
}

func TestSessionEquityCurveMarksToMarket(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
	}, nil)

	bars := signaledBars(
		[]float64{100, 110, 110},
		[]domain.Signal{domain.SignalBuy, domain.SignalHold, domain.SignalHold},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.EquityCurve) != len(bars) {
		t.Fatalf("equity curve length = %d, want %d", len(res.EquityCurve), len(bars))
	}
	if !almostEqual(res.EquityCurve[0].Value, 1000, 1e-9) {
		t.Errorf("equity[0] = %v, want 1000", res.EquityCurve[0].Value)
	}
	// 50 cash + 9.5 units at 110.
	if !almostEqual(res.EquityCurve[1].Value, 1095, 1e-9) {
		t.Errorf("equity[1] = %v, want 1095", res.EquityCurve[1].Value)
	}
}

func TestSessionUnrealizedPnL(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
	}, nil)

	bars := signaledBars(
		[]float64{100, 105},
		[]domain.Signal{domain.SignalBuy, domain.SignalHold},
	)
	s.ProcessBar(bars[0])
	s.ProcessBar(bars[1])

	pos, ok := s.Portfolio().Positions["BTC/USD"]
	if !ok {
		t.Fatal("position not open")
	}
	if !almostEqual(pos.UnrealizedPnL, 47.5, 1e-9) {
		t.Errorf("unrealized pnl = %v, want 47.5", pos.UnrealizedPnL)
	}
}

func TestSessionCosts(t *testing.T) {
	s := NewSession(Config{
		InitialCapital:       1000,
		PositionSizeFraction: 0.95,
		CommissionRate:       0.001,
		SlippageRate:         0.0005,
	}, nil)

	bars := signaledBars(
		[]float64{100, 100},
		[]domain.Signal{domain.SignalBuy, domain.SignalSell},
	)
	res, err := s.Run(bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Both legs trade 950 of notional at a 0.15% combined rate.
	wantTotal := 950*0.0015 + 950*0.0015
	if !almostEqual(res.Costs.Total(), wantTotal, 1e-9) {
		t.Errorf("total costs = %v, want %v", res.Costs.Total(), wantTotal)
	}
	if !almostEqual(res.FinalValue, 1000-wantTotal, 1e-9) {
		t.Errorf("final value = %v, want %v", res.FinalValue, 1000-wantTotal)
	}
}

func TestSessionEmptyInput(t *testing.T) {
	s := NewSession(Config{InitialCapital: 1000}, nil)
	if _, err := s.Run(nil); err == nil {
		t.Fatal("Run on empty input: got nil error")
	}
}
