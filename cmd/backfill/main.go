package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"fundnav/internal/database"
	"fundnav/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Seeds a demo fund with a disclosed portfolio and a set of quotes so the
// valuation endpoints have something to work with.
func main() {
	godotenv.Load()
	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		log.Fatal("POSTGRES_URL is required")
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	r := database.New(db, logrus.New())

	fundCode := "161725"
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	fmt.Printf("Seeding fund %s with NAV date %s...\n", fundCode, yesterday.Format("2006-01-02"))

	// 1. Fund with last published NAV
	if err := r.UpsertFund(ctx, models.Fund{
		Code:    fundCode,
		Name:    "Liquor Index Fund",
		LastNav: decimal.RequireFromString("1.2345"),
		NavDate: yesterday,
	}); err != nil {
		log.Fatalf("could not upsert fund: %v", err)
	}

	// 2. Disclosed holdings from the latest quarterly filing
	holdings := []models.FundHolding{
		{StockCode: "600519", StockName: "Kweichow Moutai", Ratio: 15.2, ReportDate: "2025-12-31"},
		{StockCode: "000858", StockName: "Wuliangye", Ratio: 14.1, ReportDate: "2025-12-31"},
		{StockCode: "000568", StockName: "Luzhou Laojiao", Ratio: 13.4, ReportDate: "2025-12-31"},
		{StockCode: "600809", StockName: "Shanxi Fenjiu", Ratio: 12.9, ReportDate: "2025-12-31"},
		{StockCode: "002304", StockName: "Yanghe Brewery", Ratio: 8.3, ReportDate: "2025-12-31"},
	}
	if err := r.ReplaceHoldings(ctx, fundCode, holdings); err != nil {
		log.Fatalf("could not replace holdings: %v", err)
	}

	// 3. Quotes for most, but not all, of the holdings
	quotes := []models.StockQuote{
		{Code: "600519", Price: 1688.50, Change: 22.10, ChangePercent: 1.33, PrevClose: 1666.40, Open: 1670.00},
		{Code: "000858", Price: 150.25, Change: -1.52, ChangePercent: -1.00, PrevClose: 151.77, Open: 151.50},
		{Code: "000568", Price: 182.60, Change: 3.40, ChangePercent: 1.90, PrevClose: 179.20, Open: 179.80},
		{Code: "600809", Price: 231.00, Change: 0, ChangePercent: 0, PrevClose: 231.00, Open: 230.50},
	}
	if err := r.UpsertQuotes(ctx, quotes, time.Now().UTC()); err != nil {
		log.Fatalf("could not upsert quotes: %v", err)
	}

	fmt.Println("Successfully seeded demo fund!")
	fmt.Printf("Now open: http://localhost:8080/valuation/%s?format=report\n", fundCode)
}
