package handler

import (
	"log/slog"
	"net/http"

	"github.com/Kauanrodrigues01/academy/internal/finance"
	"github.com/Kauanrodrigues01/academy/internal/money"
	"github.com/Kauanrodrigues01/academy/internal/service"
)

// snapshotRows is how many daily snapshots the finance page lists.
const snapshotRows = 7

type DashboardHandler struct {
	views   *Views
	finance *service.Finance
	reports *service.Reports
	logger  *slog.Logger
}

func NewDashboardHandler(views *Views, svc *service.Services, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{views: views, finance: svc.Finance, reports: svc.Reports, logger: logger}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.views.renderError(w, r, http.StatusNotFound, "A página que você procura não existe.")
		return
	}
	v, err := h.finance.Dashboard(r.Context())
	if err != nil {
		h.views.serverError(w, r, "dashboard", err)
		return
	}
	data := h.views.page(w, r, "Painel", "dashboard")
	data["View"] = v
	h.views.render(w, r, http.StatusOK, "dashboard.html", data)
}

func (h *DashboardHandler) Finance(w http.ResponseWriter, r *http.Request) {
	v, err := h.finance.FinancePage(r.Context())
	if err != nil {
		h.views.serverError(w, r, "finance page", err)
		return
	}
	snapshots, err := h.reports.RecentSnapshots(r.Context(), snapshotRows)
	if err != nil {
		h.views.serverError(w, r, "daily snapshots", err)
		return
	}
	today := h.views.today()

	data := h.views.page(w, r, "Financeiro", "finance")
	data["View"] = v
	data["Chart"] = newChart(v.Months, v.ChartMax, int(today.Month()))
	data["Snapshots"] = snapshots
	h.views.render(w, r, http.StatusOK, "finance.html", data)
}

// Bar is one month in the profit chart, in SVG user units.
type Bar struct {
	Name      string
	Short     string
	Total     money.Cents
	X, Y      int
	W, H      int
	LabelX    int
	Highlight bool
}

// Chart lays out the monthly profit bars. Heights are scaled against the
// best month; a year without payments draws empty bars on the baseline.
type Chart struct {
	Width    int
	Height   int
	Baseline int
	LabelY   int
	Bars     []Bar
}

const (
	chartWidth    = 600
	chartHeight   = 240
	chartPadding  = 20
	chartLabelGap = 16
	barGap        = 10
)

func newChart(months []finance.MonthTotal, max money.Cents, current int) Chart {
	c := Chart{
		Width:    chartWidth,
		Height:   chartHeight,
		Baseline: chartHeight - chartPadding - chartLabelGap,
		LabelY:   chartHeight - chartPadding/2,
	}
	if len(months) == 0 {
		return c
	}

	plot := c.Baseline - chartPadding
	slot := (chartWidth - 2*chartPadding) / len(months)
	for i, m := range months {
		h := 0
		if max > 0 && m.Total > 0 {
			h = int(int64(plot) * int64(m.Total) / int64(max))
			if h == 0 {
				h = 1
			}
		}
		x := chartPadding + i*slot + barGap/2
		c.Bars = append(c.Bars, Bar{
			Name:      m.Name,
			Short:     shortMonth(m.Name),
			Total:     m.Total,
			X:         x,
			Y:         c.Baseline - h,
			W:         slot - barGap,
			H:         h,
			LabelX:    x + (slot-barGap)/2,
			Highlight: m.Month == current,
		})
	}
	return c
}

func shortMonth(name string) string {
	r := []rune(name)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}
