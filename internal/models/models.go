package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockQuote is a point-in-time quote for one security.
type StockQuote struct {
	Code          string    `db:"code" json:"code"`
	Price         float64   `db:"price" json:"price"`
	Change        float64   `db:"change" json:"change"`
	ChangePercent float64   `db:"change_percent" json:"change_percent"`
	PrevClose     float64   `db:"prev_close" json:"prev_close"`
	Open          float64   `db:"open" json:"open"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// FundHolding is one disclosed position. Ratio is a percentage of fund NAV.
type FundHolding struct {
	StockCode  string   `db:"stock_code" json:"stock_code"`
	StockName  string   `db:"stock_name" json:"stock_name"`
	Ratio      float64  `db:"ratio" json:"ratio"`
	Shares     *float64 `db:"shares" json:"shares,omitempty"`
	ReportDate string   `db:"report_date" json:"report_date"`
}

type Fund struct {
	Code      string          `db:"code" json:"fund_code"`
	Name      string          `db:"name" json:"fund_name"`
	LastNav   decimal.Decimal `db:"last_nav" json:"last_nav"`
	NavDate   time.Time       `db:"nav_date" json:"nav_date"`
	Watched   bool            `db:"watched" json:"watched"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// HoldingContribution is the per-holding row of a valuation. Unpriced holdings
// carry zero price, change and contribution.
type HoldingContribution struct {
	StockCode     string          `json:"stock_code"`
	StockName     string          `json:"stock_name"`
	Ratio         decimal.Decimal `json:"ratio"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Contribution  decimal.Decimal `json:"contribution"`
	Priced        bool            `json:"priced"`
}

type DataQuality struct {
	TotalRatio decimal.Decimal `json:"total_ratio"`
	Coverage   decimal.Decimal `json:"coverage"`
	IsReliable bool            `json:"is_reliable"`
}

// ValuationResult is the output of one NAV estimation.
type ValuationResult struct {
	FundCode               string                `json:"fund_code"`
	FundName               string                `json:"fund_name"`
	LastNav                decimal.Decimal       `json:"last_nav"`
	EstimatedNav           decimal.Decimal       `json:"estimated_nav"`
	EstimatedChange        decimal.Decimal       `json:"estimated_change"`
	EstimatedChangePercent decimal.Decimal       `json:"estimated_change_percent"`
	CalculationTime        time.Time             `json:"calculation_time"`
	Holdings               []HoldingContribution `json:"holdings"`
	DataQuality            DataQuality           `json:"data_quality"`
}

// FundComparison is one entry of a multi-fund comparison. Error is set when the
// fund could not be valued.
type FundComparison struct {
	FundCode  string           `json:"fund_code"`
	Direction string           `json:"direction,omitempty"`
	Result    *ValuationResult `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type PortfolioStats struct {
	FundCount            int             `json:"fund_count"`
	Up                   int             `json:"up"`
	Down                 int             `json:"down"`
	Flat                 int             `json:"flat"`
	Reliable             int             `json:"reliable"`
	Failed               int             `json:"failed"`
	AverageChangePercent decimal.Decimal `json:"average_change_percent"`
	Best                 string          `json:"best,omitempty"`
	Worst                string          `json:"worst,omitempty"`
}
