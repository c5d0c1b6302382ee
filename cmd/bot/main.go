package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"options-trading-bot/internal/broker"
	"options-trading-bot/internal/broker/brokerobs"
	"options-trading-bot/internal/broker/zerodha"
	"options-trading-bot/internal/engine"
	"options-trading-bot/internal/interfaces"
	"options-trading-bot/internal/logger"
	"options-trading-bot/internal/market"
	"options-trading-bot/internal/store"
	"options-trading-bot/internal/trace"
	"options-trading-bot/internal/tradelog"
	"options-trading-bot/internal/tradestore"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()
	must(logger.Init())
	must(trace.Init())

	cfg, err := store.LoadConfig(*cfgPath)
	if os.IsNotExist(err) {
		def := store.Default()
		cfg, err = &def, nil
		logger.Warn(context.Background(), "Config file not found, using defaults", "path", *cfgPath)
	}
	must(err)
	st := store.NewStore(*cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	brk, feed := buildBroker(cfg)
	brk = brokerobs.Wrap(brk)

	journal := tradelog.New(cfg.DataDir)
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = journal.CompressOlder(n)
	}

	db, err := tradestore.Open(cfg.DataDir)
	must(err)
	defer db.Close()

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	eng := engine.New(st, brk, feed, nil, journal, db)

	// A restart inside the session must not reset the day's limits.
	now := time.Now()
	dayStart, dayEnd := market.SessionBounds(now)
	if sum, err := db.DaySummary(ctx, dayStart, dayEnd, market.SessionDate(now)); err == nil {
		eng.RestoreDay(sum)
	} else {
		logger.ErrorWithErr(ctx, "Day summary restore failed", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- eng.Run(ctx) }()

	logger.Info(ctx, "Bot started", "mode", cfg.Mode, "index", cfg.SelectedIndex)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down")
		cancel()
		<-errc
	case err := <-errc:
		if err != nil {
			logger.ErrorWithErr(ctx, "Engine exited", err)
		}
	}

	shutdownCtx, sdCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer sdCancel()
	_ = trace.Shutdown(shutdownCtx)
}

func buildBroker(cfg *store.Config) (interfaces.Broker, interfaces.Feed) {
	if cfg.Mode == store.ModeLive {
		apiKey := os.Getenv("KITE_API_KEY")
		accessToken := os.Getenv("KITE_ACCESS_TOKEN")
		brk := zerodha.NewZerodha(zerodha.Params{APIKey: apiKey, AccessToken: accessToken})
		feed := zerodha.NewTickerFeed(apiKey, accessToken)
		return brk, feed
	}
	return broker.NewPaper(), broker.NewSimFeed(time.Second)
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "Metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.ErrorWithErr(ctx, "Metrics server failed", err)
	}
}
