package ta

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSuperTrendWarmup(t *testing.T) {
	st := NewSuperTrend(3, 2)

	if _, _, ok := st.Update(102, 98, 100); ok {
		t.Fatal("expected not ready after 1 candle with period 3")
	}
	if _, _, ok := st.Update(103, 99, 101); ok {
		t.Fatal("expected not ready after 2 candles with period 3")
	}
	if _, _, ok := st.Update(104, 100, 102); !ok {
		t.Fatal("expected ready after 3 candles with period 3")
	}
	if _, _, ok := st.Value(); !ok {
		t.Fatal("Value should report ready once seeded")
	}
}

// Hand-traced with period 2, multiplier 1:
//
//	c1 H=12 L=10 C=11: tr=2, warmup
//	c2 H=13 L=11 C=12: tr=2, atr=2, bands 14/10, close below upper -> bearish, value=14
//	c3 H=16 L=14 C=15: tr=4, atr=3, basic bands 18/12, lower ratchets to 12,
//	                   upper holds 14, close 15 breaks upper -> bullish, value=12
func TestSuperTrendFlipToBullish(t *testing.T) {
	st := NewSuperTrend(2, 1)

	if _, _, ok := st.Update(12, 10, 11); ok {
		t.Fatal("expected warmup on first candle")
	}

	v, dir, ok := st.Update(13, 11, 12)
	if !ok || dir != -1 || !almostEqual(v, 14) {
		t.Fatalf("candle 2: want value=14 dir=-1 ready, got v=%v dir=%d ok=%v", v, dir, ok)
	}

	v, dir, ok = st.Update(16, 14, 15)
	if !ok || dir != 1 || !almostEqual(v, 12) {
		t.Fatalf("candle 3: want value=12 dir=+1 after flip, got v=%v dir=%d ok=%v", v, dir, ok)
	}
}

func TestSuperTrendBandsRatchet(t *testing.T) {
	st := NewSuperTrend(2, 1)
	st.Update(12, 10, 11)
	st.Update(16, 14, 15) // seeds bearish

	// Drive a clear uptrend and verify the stop value never falls while
	// the trend stays bullish.
	closes := [][3]float64{{18, 16, 17}, {20, 18, 19}, {22, 20, 21}, {24, 22, 23}}
	var prev float64 = math.Inf(-1)
	for _, c := range closes {
		v, dir, ok := st.Update(c[0], c[1], c[2])
		if !ok {
			t.Fatal("expected ready")
		}
		if dir == 1 {
			if v < prev {
				t.Fatalf("bullish stop loosened: %v -> %v", prev, v)
			}
			prev = v
		} else {
			prev = math.Inf(-1)
		}
	}
}

func TestSuperTrendReset(t *testing.T) {
	st := NewSuperTrend(2, 1)
	st.Update(12, 10, 11)
	st.Update(13, 11, 12)
	if _, _, ok := st.Value(); !ok {
		t.Fatal("expected seeded before reset")
	}

	st.Reset()
	if _, _, ok := st.Value(); ok {
		t.Fatal("expected not ready after reset")
	}
	if _, _, ok := st.Update(12, 10, 11); ok {
		t.Fatal("reset should restart the warmup count")
	}
}
