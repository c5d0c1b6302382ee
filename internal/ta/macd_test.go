package ta

import "testing"

func TestEMASeedsWithSMA(t *testing.T) {
	e := NewEMA(3)

	if _, ok := e.Update(1); ok {
		t.Fatal("expected not ready after 1 sample")
	}
	if _, ok := e.Update(2); ok {
		t.Fatal("expected not ready after 2 samples")
	}
	v, ok := e.Update(3)
	if !ok || !almostEqual(v, 2) {
		t.Fatalf("seed: want SMA 2, got %v ok=%v", v, ok)
	}

	// k = 2/(3+1) = 0.5
	v, _ = e.Update(4)
	if !almostEqual(v, 3) {
		t.Fatalf("recurrence: want 3, got %v", v)
	}
}

// Hand-traced MACD(2,3,2) on closes 1..5:
//
//	fast(2): 1.5, 2.5, 3.5, 4.5
//	slow(3): 2, 3, 4
//	line:    0.5, 0.5, 0.5
//	signal seeds on the second line value; histogram is flat zero.
func TestMACDReadiness(t *testing.T) {
	m := NewMACD(2, 3, 2)

	for i, close := range []float64{1, 2, 3} {
		if _, _, _, ok := m.Update(close); ok {
			t.Fatalf("expected not ready at close %d", i+1)
		}
	}

	line, sig, hist, ok := m.Update(4)
	if !ok {
		t.Fatal("expected ready once the signal EMA seeds")
	}
	if !almostEqual(line, 0.5) || !almostEqual(sig, 0.5) || !almostEqual(hist, 0) {
		t.Fatalf("close 4: want line=0.5 sig=0.5 hist=0, got %v %v %v", line, sig, hist)
	}

	line, sig, hist, ok = m.Update(5)
	if !ok || !almostEqual(line, 0.5) || !almostEqual(hist, 0) {
		t.Fatalf("close 5: want line=0.5 hist=0, got %v %v %v ok=%v", line, sig, hist, ok)
	}
}

func TestMACDHistogramSign(t *testing.T) {
	m := NewMACD(2, 4, 2)

	// Accelerating rally: the macd line keeps widening, so the
	// histogram sits above its own signal.
	var hist float64
	var ok bool
	for _, c := range []float64{10, 11, 13, 16, 20, 25, 31} {
		_, _, hist, ok = m.Update(c)
	}
	if !ok || hist <= 0 {
		t.Fatalf("uptrend: want positive histogram, got %v", hist)
	}

	// Hard reversal drags the fast EMA under the slow one.
	for _, c := range []float64{25, 15, 8, 3} {
		_, _, hist, _ = m.Update(c)
	}
	if hist >= 0 {
		t.Fatalf("downtrend: want negative histogram, got %v", hist)
	}
}

func TestMACDReset(t *testing.T) {
	m := NewMACD(2, 3, 2)
	for _, c := range []float64{1, 2, 3, 4, 5} {
		m.Update(c)
	}
	m.Reset()
	if _, _, _, ok := m.Update(10); ok {
		t.Fatal("expected warmup to restart after reset")
	}
	if m.fast.seeded || m.slow.seeded || m.signal.seeded {
		t.Fatal("EMAs should be unseeded after reset")
	}
}
