package tradelog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"options-trading-bot/internal/market"
	"options-trading-bot/internal/types"
)

// Log appends closed trades to one JSONL file per IST trading day.
// Files older than the retention window are gzip-compressed in place.
type Log struct {
	mu  sync.Mutex
	dir string
}

func New(dataDir string) *Log {
	return &Log{dir: filepath.Join(dataDir, "tradelog")}
}

func (l *Log) dailyFilepath(t time.Time) string {
	return filepath.Join(l.dir, market.SessionDate(t)+".jsonl")
}

// Record appends one trade to the day file keyed by the trade's exit
// time.
func (l *Log) Record(ctx context.Context, tr types.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.dailyFilepath(tr.ExitTime)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(tr)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// ReadDay returns the trades journaled for one IST date (2006-01-02).
func (l *Log) ReadDay(date string) ([]types.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(filepath.Join(l.dir, date+".jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []types.TradeRecord
	dec := json.NewDecoder(f)
	for {
		var tr types.TradeRecord
		if err := dec.Decode(&tr); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// CompressOlder gzips day files whose mtime is past the retention
// window. Safe to run repeatedly; already-compressed days are skipped.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e := os.Stat(gz); e == nil {
			return os.Remove(p)
		}
		in, e := os.Open(p)
		if e != nil {
			return nil
		}
		defer in.Close()
		out, e := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e = io.Copy(gw, in); e != nil {
			gw.Close()
			out.Close()
			return nil
		}
		if e = gw.Close(); e != nil {
			out.Close()
			return nil
		}
		if e = out.Close(); e != nil {
			return nil
		}
		return os.Remove(p)
	})
}
