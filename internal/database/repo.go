package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fundnav/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var ErrFundNotFound = fmt.Errorf("fund not found: %w", sql.ErrNoRows)

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

// UpsertFund inserts a fund or updates its name and last published NAV.
func (r *Repo) UpsertFund(ctx context.Context, f models.Fund) error {
	navDate := f.NavDate
	if navDate.IsZero() {
		navDate = time.Now().UTC()
	}
	q := `INSERT INTO funds (code, name, last_nav, nav_date, watched) VALUES ($1, $2, $3::numeric, $4, TRUE)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, last_nav = EXCLUDED.last_nav, nav_date = EXCLUDED.nav_date, watched = TRUE`
	_, err := r.db.ExecContext(ctx, q, f.Code, f.Name, f.LastNav.StringFixed(4), navDate.Format("2006-01-02"))
	return err
}

func (r *Repo) GetFund(ctx context.Context, code string) (models.Fund, error) {
	var f models.Fund
	err := r.db.GetContext(ctx, &f, `SELECT code, name, last_nav, nav_date, watched, created_at FROM funds WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Fund{}, ErrFundNotFound
	}
	return f, err
}

func (r *Repo) ListFunds(ctx context.Context) ([]models.Fund, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT code, name, last_nav, nav_date, watched, created_at FROM funds WHERE watched ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Fund{}
	for rows.Next() {
		var f models.Fund
		if err := rows.StructScan(&f); err != nil {
			r.log.Warnf("scan fund failed: %v", err)
			continue
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

func (r *Repo) DeleteFund(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM funds WHERE code = $1`, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFundNotFound
	}
	return nil
}

// ReplaceHoldings swaps the disclosed portfolio of a fund for a new filing.
func (r *Repo) ReplaceHoldings(ctx context.Context, fundCode string, holdings []models.FundHolding) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM funds WHERE code = $1)`, fundCode); err != nil {
		return err
	}
	if !exists {
		return ErrFundNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_holdings WHERE fund_code = $1`, fundCode); err != nil {
		return err
	}
	ins := `INSERT INTO fund_holdings (fund_code, stock_code, stock_name, ratio, shares, report_date) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fund_code, stock_code) DO UPDATE SET stock_name = EXCLUDED.stock_name, ratio = EXCLUDED.ratio, shares = EXCLUDED.shares, report_date = EXCLUDED.report_date`
	for _, h := range holdings {
		if _, err := tx.ExecContext(ctx, ins, fundCode, h.StockCode, h.StockName, h.Ratio, h.Shares, h.ReportDate); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetHoldings returns the latest disclosed holdings of a fund. A fund with no
// holdings yields an empty slice.
func (r *Repo) GetHoldings(ctx context.Context, fundCode string) ([]models.FundHolding, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT stock_code, stock_name, ratio, shares, report_date FROM fund_holdings WHERE fund_code = $1 ORDER BY ratio DESC`, fundCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.FundHolding{}
	for rows.Next() {
		var h models.FundHolding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan holding failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// GetQuotes returns cached quote snapshots for the given codes. Unknown codes are absent.
func (r *Repo) GetQuotes(ctx context.Context, codes []string) ([]models.StockQuote, error) {
	res := []models.StockQuote{}
	if len(codes) == 0 {
		return res, nil
	}
	rows, err := r.db.QueryxContext(ctx, `SELECT code, price, change, change_percent, prev_close, open, updated_at FROM stock_quotes WHERE code = ANY($1)`, pq.Array(codes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var q models.StockQuote
		if err := rows.StructScan(&q); err != nil {
			r.log.Warnf("scan quote failed: %v", err)
			continue
		}
		res = append(res, q)
	}
	return res, rows.Err()
}

func (r *Repo) UpsertQuotes(ctx context.Context, quotes []models.StockQuote, ts time.Time) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `INSERT INTO stock_quotes (code, price, change, change_percent, prev_close, open, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET price = EXCLUDED.price, change = EXCLUDED.change, change_percent = EXCLUDED.change_percent,
		prev_close = EXCLUDED.prev_close, open = EXCLUDED.open, updated_at = EXCLUDED.updated_at`
	for _, s := range quotes {
		if _, err := tx.ExecContext(ctx, q, s.Code, s.Price, s.Change, s.ChangePercent, s.PrevClose, s.Open, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetHeldStockCodes lists every stock held by a watched fund.
func (r *Repo) GetHeldStockCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT DISTINCT h.stock_code FROM fund_holdings h JOIN funds f ON f.code = h.fund_code WHERE f.watched ORDER BY h.stock_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			r.log.Warnf("scan stock code failed: %v", err)
			continue
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
