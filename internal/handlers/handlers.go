package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"fundnav/internal/database"
	"fundnav/internal/models"
	"fundnav/internal/valuation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type FundRepo interface {
	UpsertFund(ctx context.Context, f models.Fund) error
	ListFunds(ctx context.Context) ([]models.Fund, error)
	DeleteFund(ctx context.Context, code string) error
	ReplaceHoldings(ctx context.Context, fundCode string, holdings []models.FundHolding) error
}

type Valuer interface {
	Estimate(ctx context.Context, fundCode string) (models.ValuationResult, error)
	Compare(ctx context.Context, codes []string) ([]models.FundComparison, models.PortfolioStats)
}

type Handler struct {
	repo     FundRepo
	valuer   Valuer
	reporter *valuation.Reporter
	log      *logrus.Logger
}

func NewHandler(r FundRepo, v Valuer, rp *valuation.Reporter, log *logrus.Logger) *Handler {
	return &Handler{repo: r, valuer: v, reporter: rp, log: log}
}

type FundRequest struct {
	FundCode string `json:"fund_code" binding:"required"`
	FundName string `json:"fund_name"`
	LastNav  string `json:"last_nav" binding:"required"`
	NavDate  string `json:"nav_date"`
}

type HoldingsRequest struct {
	Holdings []models.FundHolding `json:"holdings"`
}

type EstimateRequest struct {
	FundCode string               `json:"fund_code"`
	FundName string               `json:"fund_name"`
	LastNav  float64              `json:"last_nav"`
	Holdings []models.FundHolding `json:"holdings"`
	Quotes   []models.StockQuote  `json:"quotes"`
}

func (h *Handler) PostFund(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid fund body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nav, err := decimal.NewFromString(req.LastNav)
	if err != nil || nav.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_nav format"})
		return
	}
	f := models.Fund{Code: strings.TrimSpace(req.FundCode), Name: req.FundName, LastNav: nav}
	if req.NavDate != "" {
		d, err := time.Parse("2006-01-02", req.NavDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nav_date must be YYYY-MM-DD"})
			return
		}
		f.NavDate = d
	}

	if err := h.repo.UpsertFund(c.Request.Context(), f); err != nil {
		h.log.Errorf("upsert fund %s failed: %v", f.Code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fund_code": f.Code})
}

func (h *Handler) ListFunds(c *gin.Context) {
	funds, err := h.repo.ListFunds(c.Request.Context())
	if err != nil {
		h.log.Errorf("list funds failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, funds)
}

func (h *Handler) DeleteFund(c *gin.Context) {
	code := c.Param("code")
	if err := h.repo.DeleteFund(c.Request.Context(), code); err != nil {
		h.writeError(c, err, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) PutHoldings(c *gin.Context) {
	code := c.Param("code")
	var req HoldingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid holdings body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := valuation.ValidateHoldings(req.Holdings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.repo.ReplaceHoldings(c.Request.Context(), code, req.Holdings); err != nil {
		h.writeError(c, err, "save failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund_code": code, "holdings": len(req.Holdings)})
}

// GetValuation serves both /valuation?fundCode= and /valuation/:fundCode.
// format=report returns the markdown report instead of JSON.
func (h *Handler) GetValuation(c *gin.Context) {
	code := c.Param("fundCode")
	if code == "" {
		code = c.Query("fundCode")
	}
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fundCode is required"})
		return
	}

	res, err := h.valuer.Estimate(c.Request.Context(), code)
	if err != nil {
		h.writeError(c, err, "estimate failed")
		return
	}
	if c.Query("format") == "report" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(h.reporter.Format(res)))
		return
	}
	c.JSON(http.StatusOK, res)
}

// PostEstimate runs the engine on inline holdings and quotes without touching storage.
func (h *Handler) PostEstimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid estimate body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := valuation.EstimateNav(req.FundCode, req.FundName, req.LastNav, req.Holdings, req.Quotes)
	if err != nil {
		h.writeError(c, err, "estimate failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	var codes []string
	if raw := c.Query("codes"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				codes = append(codes, s)
			}
		}
	} else {
		funds, err := h.repo.ListFunds(ctx)
		if err != nil {
			h.log.Errorf("list funds failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		for _, f := range funds {
			codes = append(codes, f.Code)
		}
	}

	items, stats := h.valuer.Compare(ctx, codes)
	c.JSON(http.StatusOK, gin.H{"funds": items, "stats": stats})
}

func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, database.ErrFundNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "fund not found"})
	case errors.Is(err, valuation.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("%s: %v", msg, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
