package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundnav/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var quoteNow = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

func newTestQuoteService(store QuoteStore, feed QuoteFeed) *QuoteService {
	s := NewQuoteService(store, feed, 2*time.Minute, logrus.New())
	s.now = func() time.Time { return quoteNow }
	return s
}

func TestQuoteService_FreshCacheSkipsFeed(t *testing.T) {
	store := new(MockQuoteStore)
	feed := new(MockQuoteFeed)
	cached := []models.StockQuote{{Code: "A", ChangePercent: 1, UpdatedAt: quoteNow.Add(-time.Minute)}}
	store.On("GetQuotes", mock.Anything, []string{"A"}).Return(cached, nil)

	quotes, err := newTestQuoteService(store, feed).GetQuotes(context.Background(), []string{"A", "A", ""})
	require.NoError(t, err)
	assert.Equal(t, cached, quotes)
	feed.AssertNotCalled(t, "FetchQuotes", mock.Anything, mock.Anything)
}

func TestQuoteService_FetchesStaleAndMissing(t *testing.T) {
	store := new(MockQuoteStore)
	feed := new(MockQuoteFeed)
	store.On("GetQuotes", mock.Anything, []string{"A", "B", "C"}).Return([]models.StockQuote{
		{Code: "A", ChangePercent: 1, UpdatedAt: quoteNow.Add(-10 * time.Minute)},
		{Code: "B", ChangePercent: 2, UpdatedAt: quoteNow.Add(-30 * time.Second)},
	}, nil)
	fetched := []models.StockQuote{{Code: "C", ChangePercent: 3}, {Code: "A", ChangePercent: 1.5}}
	feed.On("FetchQuotes", mock.Anything, []string{"A", "C"}).Return(fetched, nil)
	store.On("UpsertQuotes", mock.Anything, fetched, quoteNow).Return(nil)

	quotes, err := newTestQuoteService(store, feed).GetQuotes(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "A", quotes[0].Code)
	assert.Equal(t, 1.5, quotes[0].ChangePercent)
	assert.Equal(t, quoteNow, quotes[0].UpdatedAt)
	assert.Equal(t, 2.0, quotes[1].ChangePercent)
	assert.Equal(t, "C", quotes[2].Code)
	store.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestQuoteService_FeedFailureFallsBackToStale(t *testing.T) {
	store := new(MockQuoteStore)
	feed := new(MockQuoteFeed)
	stale := models.StockQuote{Code: "A", ChangePercent: 1, UpdatedAt: quoteNow.Add(-time.Hour)}
	store.On("GetQuotes", mock.Anything, []string{"A", "B"}).Return([]models.StockQuote{stale}, nil)
	feed.On("FetchQuotes", mock.Anything, []string{"A", "B"}).Return(nil, errors.New("timeout"))

	quotes, err := newTestQuoteService(store, feed).GetQuotes(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []models.StockQuote{stale}, quotes)
	store.AssertNotCalled(t, "UpsertQuotes", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteService_StoreFailureUsesFeed(t *testing.T) {
	store := new(MockQuoteStore)
	feed := new(MockQuoteFeed)
	store.On("GetQuotes", mock.Anything, []string{"A"}).Return(nil, errors.New("connection refused"))
	fetched := []models.StockQuote{{Code: "A", ChangePercent: -0.5}}
	feed.On("FetchQuotes", mock.Anything, []string{"A"}).Return(fetched, nil)
	store.On("UpsertQuotes", mock.Anything, fetched, quoteNow).Return(errors.New("connection refused"))

	quotes, err := newTestQuoteService(store, feed).GetQuotes(context.Background(), []string{"A"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, -0.5, quotes[0].ChangePercent)
}

func TestQuoteService_NoFeedServesCache(t *testing.T) {
	store := new(MockQuoteStore)
	stale := models.StockQuote{Code: "A", UpdatedAt: quoteNow.Add(-time.Hour)}
	store.On("GetQuotes", mock.Anything, []string{"A", "B"}).Return([]models.StockQuote{stale}, nil)

	quotes, err := newTestQuoteService(store, nil).GetQuotes(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []models.StockQuote{stale}, quotes)
	require.NoError(t, newTestQuoteService(store, nil).Refresh(context.Background()))
}

func TestQuoteService_Refresh(t *testing.T) {
	store := new(MockQuoteStore)
	feed := new(MockQuoteFeed)
	store.On("GetHeldStockCodes", mock.Anything).Return([]string{"A", "B"}, nil)
	fetched := []models.StockQuote{{Code: "A"}, {Code: "B"}}
	feed.On("FetchQuotes", mock.Anything, []string{"A", "B"}).Return(fetched, nil)
	store.On("UpsertQuotes", mock.Anything, fetched, quoteNow).Return(nil)

	require.NoError(t, newTestQuoteService(store, feed).Refresh(context.Background()))
	store.AssertExpectations(t)
}

func TestQuoteService_RefreshKeepsPartialBatch(t *testing.T) {
	store := new(MockQuoteStore)
	feed := new(MockQuoteFeed)
	store.On("GetHeldStockCodes", mock.Anything).Return([]string{"A", "B"}, nil)
	partial := []models.StockQuote{{Code: "A"}}
	feed.On("FetchQuotes", mock.Anything, []string{"A", "B"}).Return(partial, errors.New("503"))
	store.On("UpsertQuotes", mock.Anything, partial, quoteNow).Return(nil)

	err := newTestQuoteService(store, feed).Refresh(context.Background())
	assert.Error(t, err)
	store.AssertExpectations(t)
}
