package service

import (
	"context"
	"time"

	"fundnav/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockFundStore struct {
	mock.Mock
}

func (m *MockFundStore) GetFund(ctx context.Context, code string) (models.Fund, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(models.Fund), args.Error(1)
}

type MockHoldingsProvider struct {
	mock.Mock
}

func (m *MockHoldingsProvider) GetHoldings(ctx context.Context, fundCode string) ([]models.FundHolding, error) {
	args := m.Called(ctx, fundCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FundHolding), args.Error(1)
}

type MockQuoteProvider struct {
	mock.Mock
}

func (m *MockQuoteProvider) GetQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StockQuote), args.Error(1)
}

type MockQuoteStore struct {
	mock.Mock
}

func (m *MockQuoteStore) GetQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StockQuote), args.Error(1)
}

func (m *MockQuoteStore) UpsertQuotes(ctx context.Context, quotes []models.StockQuote, ts time.Time) error {
	args := m.Called(ctx, quotes, ts)
	return args.Error(0)
}

func (m *MockQuoteStore) GetHeldStockCodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockQuoteFeed struct {
	mock.Mock
}

func (m *MockQuoteFeed) FetchQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StockQuote), args.Error(1)
}
