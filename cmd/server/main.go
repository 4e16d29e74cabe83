package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"fundnav/internal/config"
	"fundnav/internal/database"
	"fundnav/internal/handlers"
	"fundnav/internal/quotefeed"
	"fundnav/internal/service"
	"fundnav/internal/valuation"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	logger := cfg.NewLogger()

	db, err := initDB(cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	r := database.New(db, logger)

	var feed service.QuoteFeed
	if cfg.QuoteFeedURL != "" {
		feed = quotefeed.NewClient(cfg.QuoteFeedURL, cfg.QuoteRateLimit, logger)
	}
	quoteSvc := service.NewQuoteService(r, feed, cfg.QuoteMaxAge, logger)
	valuationSvc := service.NewValuationService(r, r, quoteSvc, cfg.UpstreamTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	quoteSvc.Start(ctx, cfg.PriceUpdateInterval)

	h := handlers.NewHandler(r, valuationSvc, valuation.NewReporter(cfg.ReportLocation), logger)

	rg := gin.New()
	rg.Use(gin.Recovery(), handlers.RequestLogger(logger))
	handlers.Register(rg, h)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: rg}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}

func initDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
