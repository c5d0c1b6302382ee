package tradelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"options-trading-bot/internal/market"
	"options-trading-bot/internal/types"
)

func record(id string, pnl float64, exit time.Time) types.TradeRecord {
	return types.TradeRecord{
		TradeID:    id,
		Index:      "NIFTY",
		Leg:        types.LegCE,
		Strike:     22500,
		Qty:        65,
		EntryPrice: 150,
		ExitPrice:  150 + pnl/65,
		PnL:        pnl,
		ExitReason: "target_hit",
		ExitTime:   exit,
		Mode:       "paper",
	}
}

func TestRecordAndReadDay(t *testing.T) {
	l := New(t.TempDir())
	ctx := context.Background()

	exit := time.Date(2026, 8, 24, 11, 0, 0, 0, market.IST)
	if err := l.Record(ctx, record("a", 650, exit)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := l.Record(ctx, record("b", -325, exit.Add(time.Hour))); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := l.ReadDay("2026-08-24")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 trades, got %d", len(got))
	}
	if got[0].TradeID != "a" || got[1].TradeID != "b" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if got[1].PnL != -325 {
		t.Fatalf("pnl roundtrip: got %v", got[1].PnL)
	}
}

func TestReadDayMissingFile(t *testing.T) {
	l := New(t.TempDir())
	got, err := l.ReadDay("2026-01-01")
	if err != nil || got != nil {
		t.Fatalf("missing day should be empty, got %v %v", got, err)
	}
}

func TestTradesSplitByISTDate(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	ctx := context.Background()

	// 23:30 UTC on the 24th is the 25th in IST.
	lateUTC := time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC)
	if err := l.Record(ctx, record("x", 100, lateUTC)); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "tradelog", "2026-08-25.jsonl")); err != nil {
		t.Fatalf("trade should land in the IST day file: %v", err)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	ctx := context.Background()

	exit := time.Date(2026, 8, 24, 11, 0, 0, 0, market.IST)
	if err := l.Record(ctx, record("a", 10, exit)); err != nil {
		t.Fatal(err)
	}

	p := filepath.Join(dir, "tradelog", "2026-08-24.jsonl")
	old := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(p, old, old); err != nil {
		t.Fatal(err)
	}

	if err := l.CompressOlder(7); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatal("original file should be replaced")
	}
	if _, err := os.Stat(p + ".gz"); err != nil {
		t.Fatalf("gz file missing: %v", err)
	}

	// Zero retention disables compression entirely.
	if err := l.CompressOlder(0); err != nil {
		t.Fatal(err)
	}
}
