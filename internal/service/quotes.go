package service

import (
	"context"
	"time"

	"fundnav/internal/models"

	"github.com/sirupsen/logrus"
)

type QuoteProvider interface {
	GetQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error)
}

type QuoteStore interface {
	GetQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error)
	UpsertQuotes(ctx context.Context, quotes []models.StockQuote, ts time.Time) error
	GetHeldStockCodes(ctx context.Context) ([]string, error)
}

type QuoteFeed interface {
	FetchQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error)
}

// QuoteService serves quotes from the store while they are fresh and goes to
// the feed for the rest. Without a feed it only serves stored quotes.
type QuoteService struct {
	store  QuoteStore
	feed   QuoteFeed
	maxAge time.Duration
	log    *logrus.Logger
	now    func() time.Time
}

func NewQuoteService(store QuoteStore, feed QuoteFeed, maxAge time.Duration, log *logrus.Logger) *QuoteService {
	return &QuoteService{store: store, feed: feed, maxAge: maxAge, log: log, now: time.Now}
}

// GetQuotes never fails: store and feed errors are logged and the affected
// codes come back stale or not at all.
func (s *QuoteService) GetQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error) {
	codes = uniqueCodes(codes)
	if len(codes) == 0 {
		return []models.StockQuote{}, nil
	}

	cached, err := s.store.GetQuotes(ctx, codes)
	if err != nil {
		s.log.Warnf("read cached quotes failed: %v", err)
	}
	byCode := make(map[string]models.StockQuote, len(cached))
	for _, q := range cached {
		byCode[q.Code] = q
	}

	now := s.now().UTC()
	var toFetch []string
	for _, c := range codes {
		q, ok := byCode[c]
		if !ok || now.Sub(q.UpdatedAt) >= s.maxAge {
			toFetch = append(toFetch, c)
		}
	}

	if len(toFetch) > 0 && s.feed != nil {
		fetched, err := s.feed.FetchQuotes(ctx, toFetch)
		if err != nil {
			s.log.Warnf("quote feed failed for %d codes, using cached quotes: %v", len(toFetch), err)
		}
		if len(fetched) > 0 {
			if err := s.store.UpsertQuotes(ctx, fetched, now); err != nil {
				s.log.Warnf("store quotes failed: %v", err)
			}
			for _, q := range fetched {
				q.UpdatedAt = now
				byCode[q.Code] = q
			}
		}
	}

	res := make([]models.StockQuote, 0, len(codes))
	for _, c := range codes {
		if q, ok := byCode[c]; ok {
			res = append(res, q)
		}
	}
	return res, nil
}

// Refresh pulls fresh quotes for every stock held by a watched fund.
func (s *QuoteService) Refresh(ctx context.Context) error {
	if s.feed == nil {
		return nil
	}
	codes, err := s.store.GetHeldStockCodes(ctx)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}
	quotes, err := s.feed.FetchQuotes(ctx, codes)
	if len(quotes) > 0 {
		if serr := s.store.UpsertQuotes(ctx, quotes, s.now().UTC()); serr != nil {
			return serr
		}
	}
	return err
}

func (s *QuoteService) Start(ctx context.Context, interval time.Duration) {
	if s.feed == nil {
		s.log.Info("no quote feed configured; quote refresher disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("quote refresher stopping")
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					s.log.Warnf("quote refresh failed: %v", err)
				}
			}
		}
	}()
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	res := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		res = append(res, c)
	}
	return res
}
