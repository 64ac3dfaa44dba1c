package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/api"
	"github.com/punchamoorthee/ledgerbook/internal/config"
	"github.com/punchamoorthee/ledgerbook/internal/events"
	"github.com/punchamoorthee/ledgerbook/internal/ledger"
	"github.com/punchamoorthee/ledgerbook/internal/logging"
	"github.com/punchamoorthee/ledgerbook/internal/marketdata"
	"github.com/punchamoorthee/ledgerbook/internal/service"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("publishing entry events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	// Initialize Layers
	book := ledger.New()
	transfers := service.NewTransferService(book, publisher, logger.Named("transfers"))

	var feed *marketdata.Feed
	if len(cfg.TickerSymbols) > 0 {
		feed = marketdata.NewFeed(cfg.TickerSymbols, cfg.TickerStartPrice)
		go func() {
			if err := feed.Run(ctx, cfg.TickerInterval); err != nil {
				logger.Error("market data feed stopped", zap.Error(err))
			}
		}()
	}

	handler := api.NewHandler(book, transfers, feed, logger.Named("api"))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("port", cfg.Port), zap.Strings("symbols", cfg.TickerSymbols))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}

	if err := book.Verify(); err != nil {
		logger.Error("ledger inconsistent at shutdown", zap.Error(err))
		return
	}
	logger.Info("server stopped", zap.Int("entries", book.Len()), zap.Int("accounts", len(book.ListAccounts())))
}
