package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fundnav/internal/models"
	"fundnav/internal/valuation"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type FundStore interface {
	GetFund(ctx context.Context, code string) (models.Fund, error)
}

type HoldingsProvider interface {
	GetHoldings(ctx context.Context, fundCode string) ([]models.FundHolding, error)
}

// compareParallelism bounds concurrent estimations in Compare.
const compareParallelism = 4

type ValuationService struct {
	funds    FundStore
	holdings HoldingsProvider
	quotes   QuoteProvider
	timeout  time.Duration
	log      *logrus.Logger
}

func NewValuationService(funds FundStore, holdings HoldingsProvider, quotes QuoteProvider, timeout time.Duration, log *logrus.Logger) *ValuationService {
	return &ValuationService{funds: funds, holdings: holdings, quotes: quotes, timeout: timeout, log: log}
}

// Estimate values one fund. Only an unknown fund or malformed stored data is an
// error; holdings and quote failures degrade to an unpriced, unreliable estimate.
func (s *ValuationService) Estimate(ctx context.Context, fundCode string) (models.ValuationResult, error) {
	fund, err := s.funds.GetFund(ctx, fundCode)
	if err != nil {
		return models.ValuationResult{}, fmt.Errorf("load fund %s: %w", fundCode, err)
	}

	holdings := s.loadHoldings(ctx, fundCode)
	codes := make([]string, 0, len(holdings))
	for _, h := range holdings {
		codes = append(codes, h.StockCode)
	}
	quotes := s.loadQuotes(ctx, fundCode, codes)

	if dups := valuation.DuplicateCodes(quotes); len(dups) > 0 {
		s.log.WithFields(logrus.Fields{"fund_code": fundCode, "codes": dups}).Warn("duplicate quotes from provider; last one wins")
	}

	res, err := valuation.EstimateNav(fund.Code, fund.Name, fund.LastNav.InexactFloat64(), holdings, quotes)
	if err != nil {
		return models.ValuationResult{}, fmt.Errorf("estimate fund %s: %w", fundCode, err)
	}
	if !res.DataQuality.IsReliable {
		s.log.WithFields(logrus.Fields{"fund_code": fundCode, "coverage": res.DataQuality.Coverage.String()}).Debug("low coverage estimate")
	}
	return res, nil
}

func (s *ValuationService) loadHoldings(ctx context.Context, fundCode string) []models.FundHolding {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	holdings, err := s.holdings.GetHoldings(ctx, fundCode)
	if err != nil {
		s.log.Warnf("holdings for %s unavailable: %v", fundCode, err)
		return nil
	}
	return holdings
}

func (s *ValuationService) loadQuotes(ctx context.Context, fundCode string, codes []string) []models.StockQuote {
	if len(codes) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	quotes, err := s.quotes.GetQuotes(ctx, codes)
	if err != nil {
		s.log.Warnf("quotes for %s unavailable: %v", fundCode, err)
		return nil
	}
	return quotes
}

// Compare values several funds concurrently. Results are ordered by estimated
// change percent, highest first, with failed funds last.
func (s *ValuationService) Compare(ctx context.Context, codes []string) ([]models.FundComparison, models.PortfolioStats) {
	codes = uniqueCodes(codes)
	out := make([]models.FundComparison, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareParallelism)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			res, err := s.Estimate(gctx, code)
			if err != nil {
				s.log.Warnf("compare: %v", err)
				out[i] = models.FundComparison{FundCode: code, Error: err.Error()}
				return nil
			}
			out[i] = models.FundComparison{FundCode: code, Direction: string(valuation.Classify(res.EstimatedChangePercent)), Result: &res}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Result, out[j].Result
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.EstimatedChangePercent.GreaterThan(b.EstimatedChangePercent)
	})
	return out, Summarize(out)
}

// Summarize aggregates a sorted comparison into portfolio statistics.
func Summarize(items []models.FundComparison) models.PortfolioStats {
	stats := models.PortfolioStats{FundCount: len(items), AverageChangePercent: decimal.Zero}
	sum := decimal.Zero
	valued := 0
	for _, it := range items {
		if it.Result == nil {
			stats.Failed++
			continue
		}
		valued++
		pct := it.Result.EstimatedChangePercent
		sum = sum.Add(pct)
		switch valuation.Classify(pct) {
		case valuation.Positive:
			stats.Up++
		case valuation.Negative:
			stats.Down++
		default:
			stats.Flat++
		}
		if it.Result.DataQuality.IsReliable {
			stats.Reliable++
		}
		if stats.Best == "" {
			stats.Best = it.FundCode
		}
		stats.Worst = it.FundCode
	}
	if valued > 0 {
		stats.AverageChangePercent = sum.Div(decimal.NewFromInt(int64(valued))).Round(2)
	}
	return stats
}
