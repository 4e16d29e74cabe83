package valuation

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"fundnav/internal/models"

	md "github.com/nao1215/markdown"
)

// MaxReportHoldings caps the holdings table of a report.
const MaxReportHoldings = 10

const disclaimer = "This is an estimate derived from disclosed holdings and live quotes. It is not the official NAV published by the fund."

type Reporter struct {
	loc *time.Location
}

// NewReporter returns a Reporter that displays times in loc. A nil loc means time.Local.
func NewReporter(loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.Local
	}
	return &Reporter{loc: loc}
}

// FormatReport renders r as markdown using the local time zone.
func FormatReport(r models.ValuationResult) string {
	return NewReporter(nil).Format(r)
}

func (rp *Reporter) Format(r models.ValuationResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	title := r.FundCode
	if r.FundName != "" {
		title = fmt.Sprintf("%s (%s)", r.FundName, r.FundCode)
	}
	doc.H1(fmt.Sprintf("Estimated NAV: %s", title))

	doc.BulletList(
		fmt.Sprintf("Last NAV: %s", r.LastNav.StringFixed(4)),
		fmt.Sprintf("Estimated NAV: %s %s", md.Bold(r.EstimatedNav.StringFixed(4)), TrendIcon(r.EstimatedChangePercent)),
		fmt.Sprintf("Estimated change: %s (%s%%)", Signed(r.EstimatedChange, 4), Signed(r.EstimatedChangePercent, 2)),
		fmt.Sprintf("Calculated at: %s", r.CalculationTime.In(rp.loc).Format("2006-01-02 15:04:05 MST")),
	)

	doc.H2("Data Quality")
	status := "Reliable"
	if !r.DataQuality.IsReliable {
		status = fmt.Sprintf("Unreliable (priced holdings cover less than %s%% of the fund)", ReliableCoverage.String())
	}
	doc.BulletList(
		fmt.Sprintf("Coverage: %s%%", r.DataQuality.Coverage.StringFixed(2)),
		fmt.Sprintf("Status: %s", status),
	)

	if len(r.Holdings) > 0 {
		doc.H2("Top Holdings by Contribution")
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignRight,
				md.AlignLeft,
				md.AlignLeft,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
			},
			Header: []string{"#", "Code", "Name", "Weight", "Price", "Change", "Contribution"},
		}
		for i, h := range r.Holdings {
			if i == MaxReportHoldings {
				break
			}
			price, change := "N/A", "N/A"
			if h.Priced {
				price = h.CurrentPrice.StringFixed(2)
				change = Signed(h.ChangePercent, 2) + "%"
			}
			table.Rows = append(table.Rows, []string{
				strconv.Itoa(i + 1),
				h.StockCode,
				h.StockName,
				h.Ratio.StringFixed(2) + "%",
				price,
				change,
				Signed(h.Contribution, 4) + "%",
			})
		}
		doc.Table(table)
	}

	doc.PlainText(md.Italic(disclaimer))
	return doc.String()
}
