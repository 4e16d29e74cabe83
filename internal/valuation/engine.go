package valuation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"fundnav/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when the inputs cannot produce a meaningful estimate.
var ErrInvalidInput = errors.New("invalid input")

// ReliableCoverage is the minimum priced weight, in percentage points, for an
// estimate to count as reliable.
var ReliableCoverage = decimal.NewFromInt(50)

var hundred = decimal.NewFromInt(100)

// EstimateNav computes the real-time estimated NAV of a fund from its prior NAV,
// its disclosed holdings and current quotes. Holdings without a quote are kept
// in the breakdown but contribute nothing. If quotes repeat a code, the last
// one wins.
func EstimateNav(fundCode, fundName string, lastNav float64, holdings []models.FundHolding, quotes []models.StockQuote) (models.ValuationResult, error) {
	return estimateAt(time.Now(), fundCode, fundName, lastNav, holdings, quotes)
}

func estimateAt(now time.Time, fundCode, fundName string, lastNav float64, holdings []models.FundHolding, quotes []models.StockQuote) (models.ValuationResult, error) {
	if err := validate(lastNav, holdings, quotes); err != nil {
		return models.ValuationResult{}, err
	}

	bySymbol := make(map[string]models.StockQuote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Code] = q
	}

	weighted := decimal.Zero
	totalRatio := decimal.Zero
	rows := make([]models.HoldingContribution, 0, len(holdings))
	for _, h := range holdings {
		ratio := decimal.NewFromFloat(h.Ratio)
		row := models.HoldingContribution{
			StockCode:     h.StockCode,
			StockName:     h.StockName,
			Ratio:         ratio,
			CurrentPrice:  decimal.Zero,
			ChangePercent: decimal.Zero,
			Contribution:  decimal.Zero,
		}
		if q, ok := bySymbol[h.StockCode]; ok {
			pct := decimal.NewFromFloat(q.ChangePercent)
			contribution := ratio.Div(hundred).Mul(pct)
			weighted = weighted.Add(contribution)
			totalRatio = totalRatio.Add(ratio)

			row.CurrentPrice = decimal.NewFromFloat(q.Price)
			row.ChangePercent = pct
			row.Contribution = contribution
			row.Priced = true
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Contribution.GreaterThan(rows[j].Contribution)
	})
	for i := range rows {
		rows[i].Contribution = rows[i].Contribution.Round(4)
	}

	nav := decimal.NewFromFloat(lastNav)
	change := nav.Mul(weighted).Div(hundred)

	return models.ValuationResult{
		FundCode:               fundCode,
		FundName:               fundName,
		LastNav:                nav,
		EstimatedNav:           nav.Add(change).Round(4),
		EstimatedChange:        change.Round(4),
		EstimatedChangePercent: weighted.Round(2),
		CalculationTime:        now.UTC(),
		Holdings:               rows,
		DataQuality:            AssessQuality(totalRatio),
	}, nil
}

// AssessQuality scores an estimate from the summed weight of priced holdings.
func AssessQuality(totalRatio decimal.Decimal) models.DataQuality {
	coverage := totalRatio.Round(2)
	return models.DataQuality{
		TotalRatio: coverage,
		Coverage:   coverage,
		IsReliable: coverage.GreaterThanOrEqual(ReliableCoverage),
	}
}

func validate(lastNav float64, holdings []models.FundHolding, quotes []models.StockQuote) error {
	if !finite(lastNav) || lastNav < 0 {
		return fmt.Errorf("%w: last nav %v", ErrInvalidInput, lastNav)
	}
	if err := ValidateHoldings(holdings); err != nil {
		return err
	}
	for _, q := range quotes {
		if !finite(q.Price) || !finite(q.ChangePercent) || !finite(q.Change) {
			return fmt.Errorf("%w: quote %s is not numeric", ErrInvalidInput, q.Code)
		}
	}
	return nil
}

// ValidateHoldings rejects holdings without a stock code or with a ratio outside [0, 100].
// Ratios are never clamped.
func ValidateHoldings(holdings []models.FundHolding) error {
	for _, h := range holdings {
		if h.StockCode == "" {
			return fmt.Errorf("%w: holding without stock code", ErrInvalidInput)
		}
		if !finite(h.Ratio) || h.Ratio < 0 || h.Ratio > 100 {
			return fmt.Errorf("%w: holding %s ratio %v outside [0, 100]", ErrInvalidInput, h.StockCode, h.Ratio)
		}
		if h.Shares != nil && !finite(*h.Shares) {
			return fmt.Errorf("%w: holding %s shares %v", ErrInvalidInput, h.StockCode, *h.Shares)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DuplicateCodes returns the quote codes that appear more than once, in first-seen order.
func DuplicateCodes(quotes []models.StockQuote) []string {
	seen := make(map[string]int, len(quotes))
	var dups []string
	for _, q := range quotes {
		seen[q.Code]++
		if seen[q.Code] == 2 {
			dups = append(dups, q.Code)
		}
	}
	return dups
}
