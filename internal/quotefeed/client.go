package quotefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fundnav/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 8 * time.Second

// MaxBatch is the largest number of codes sent in one request.
const MaxBatch = 50

// Client fetches quotes from an HTTP endpoint of the form
// GET {baseURL}/quotes?codes=A,B,C returning a JSON array of quotes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger
}

func NewClient(baseURL string, ratePerSecond float64, log *logrus.Logger) *Client {
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		log:        log,
	}
}

type quotePayload struct {
	Code          string  `json:"code"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	PrevClose     float64 `json:"prevClose"`
	Open          float64 `json:"open"`
}

// FetchQuotes returns quotes for codes. The feed may answer with fewer entries
// than requested; a failed batch aborts the call with whatever earlier batches returned.
func (c *Client) FetchQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error) {
	res := []models.StockQuote{}
	for start := 0; start < len(codes); start += MaxBatch {
		end := start + MaxBatch
		if end > len(codes) {
			end = len(codes)
		}
		batch, err := c.fetchBatch(ctx, codes[start:end])
		if err != nil {
			return res, err
		}
		res = append(res, batch...)
	}
	return res, nil
}

func (c *Client) fetchBatch(ctx context.Context, codes []string) ([]models.StockQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/quotes?%s", c.baseURL, url.Values{"codes": {strings.Join(codes, ",")}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("quote feed returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload []quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}

	quotes := make([]models.StockQuote, 0, len(payload))
	for _, p := range payload {
		if p.Code == "" {
			continue
		}
		quotes = append(quotes, models.StockQuote{
			Code:          p.Code,
			Price:         p.Price,
			Change:        p.Change,
			ChangePercent: p.ChangePercent,
			PrevClose:     p.PrevClose,
			Open:          p.Open,
		})
	}
	c.log.WithFields(logrus.Fields{
		"requested": len(codes),
		"received":  len(quotes),
		"duration":  time.Since(start),
	}).Debug("fetched quotes")
	return quotes, nil
}
