package tradestore

import (
	"context"
	"testing"
	"time"

	"options-trading-bot/internal/types"
)

func sampleTrade(id string, pnl float64, exit time.Time) types.TradeRecord {
	return types.TradeRecord{
		TradeID:    id,
		Index:      "NIFTY",
		Leg:        types.LegCE,
		Strike:     22500,
		Expiry:     "2026-08-25",
		Qty:        65,
		EntryPrice: 150,
		ExitPrice:  150 + pnl/65,
		PnL:        pnl,
		ExitReason: "target_hit",
		EntryTime:  exit.Add(-time.Hour),
		ExitTime:   exit,
		Mode:       "paper",
	}
}

func TestRecordAndQuery(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	if err := s.Record(ctx, sampleTrade("a", 650, day.Add(5*time.Hour))); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, sampleTrade("b", -130, day.Add(6*time.Hour))); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Next day, outside the query window.
	if err := s.Record(ctx, sampleTrade("c", 50, day.Add(30*time.Hour))); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := s.TradesBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 trades in window, got %d", len(got))
	}
	if got[0].TradeID != "a" || got[1].TradeID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Leg != types.LegCE || got[0].PnL != 650 {
		t.Fatalf("roundtrip mismatch: %+v", got[0])
	}
}

func TestDuplicateTradeIgnored(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	exit := time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC)
	tr := sampleTrade("dup", 100, exit)

	if err := s.Record(ctx, tr); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, tr); err != nil {
		t.Fatalf("duplicate insert should be a no-op, got %v", err)
	}

	got, err := s.TradesBetween(ctx, exit.Add(-time.Hour), exit.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 trade after duplicate write, got %d", len(got))
	}
}

func TestDaySummary(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	s.Record(ctx, sampleTrade("a", 650, day.Add(5*time.Hour)))
	s.Record(ctx, sampleTrade("b", -130, day.Add(6*time.Hour)))

	sum, err := s.DaySummary(ctx, day, day.Add(24*time.Hour), "2026-08-24")
	if err != nil {
		t.Fatal(err)
	}
	if sum.TradeCount != 2 || sum.WinCount != 1 || sum.LossCount != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.GrossPnL != 520 {
		t.Fatalf("want gross 520, got %v", sum.GrossPnL)
	}
}
