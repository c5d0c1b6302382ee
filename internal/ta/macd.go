package ta

import "math"

// EMA is an incremental exponential moving average. The first value is a
// simple average of the first `period` samples; after that the standard
// recurrence with k = 2/(period+1) applies.
type EMA struct {
	period int
	count  int
	sum    float64
	value  float64
	seeded bool
}

func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Reset() {
	*e = EMA{period: e.period}
}

func (e *EMA) Update(x float64) (float64, bool) {
	e.count++
	if !e.seeded {
		e.sum += x
		if e.count < e.period {
			return math.NaN(), false
		}
		e.value = e.sum / float64(e.period)
		e.seeded = true
		return e.value, true
	}
	k := 2.0 / float64(e.period+1)
	e.value = (x-e.value)*k + e.value
	return e.value, true
}

// MACD computes the fast-minus-slow EMA line, its signal EMA and the
// histogram incrementally. The signal EMA is seeded from the first
// `signal` MACD values, so readiness lags the slow EMA.
type MACD struct {
	fast, slow *EMA
	signal     *EMA

	line, sig, hist float64
	ready           bool
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{fast: NewEMA(fast), slow: NewEMA(slow), signal: NewEMA(signal)}
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
	m.line, m.sig, m.hist = 0, 0, 0
	m.ready = false
}

// Update feeds one closing price. Returns macd line, signal line and
// histogram, with false until all three EMAs are seeded.
func (m *MACD) Update(close float64) (line, signal, hist float64, ok bool) {
	fv, fok := m.fast.Update(close)
	sv, sok := m.slow.Update(close)
	if !fok || !sok {
		return math.NaN(), math.NaN(), math.NaN(), false
	}
	m.line = fv - sv
	sig, gok := m.signal.Update(m.line)
	if !gok {
		return math.NaN(), math.NaN(), math.NaN(), false
	}
	m.sig = sig
	m.hist = m.line - m.sig
	m.ready = true
	return m.line, m.sig, m.hist, true
}
