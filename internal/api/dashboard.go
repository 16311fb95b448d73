package api

import (
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
)

// ─── GET /api/hr/dashboard ────────────────────────────────────────────────────

var riskTierNames = map[scoring.RiskLevel]string{
	scoring.RiskHigh:   "Высокий",
	scoring.RiskMedium: "Средний",
	scoring.RiskLow:    "Низкий",
}

// handleDashboard renders the HR overview as a standalone HTML page: the
// latest-result risk tiers and the mean of each sub-scale.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	histories, st, err := s.rollup(r)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("dashboard: %w", err))
		return
	}

	page := components.NewPage()
	page.PageTitle = "Выгорание: обзор"
	page.AddCharts(
		riskPie(st),
		subscaleBar(stats.LatestAverages(histories)),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		s.logger.ErrorContext(r.Context(), "dashboard render failed", "error", err)
	}
}

func riskPie(st stats.Statistics) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Уровни риска",
			Subtitle: fmt.Sprintf("Сотрудников: %d, прошли тест: %d", st.TotalEmployees, st.Tested),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)

	items := make([]opts.PieData, 0, len(scoring.RiskLevels))
	for _, lvl := range scoring.RiskLevels {
		items = append(items, opts.PieData{Name: riskTierNames[lvl], Value: st.RiskCounts[lvl]})
	}
	pie.AddSeries("Риск", items)
	return pie
}

func subscaleBar(a stats.Averages) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Средние значения шкал"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0}),
	)

	bar.SetXAxis([]string{"Истощение", "Деперсонализация", "Редукция достижений"}).
		AddSeries("Среднее", []opts.BarData{
			{Value: round1(a.EmotionalExhaustion)},
			{Value: round1(a.Depersonalization)},
			{Value: round1(a.PersonalAccomplishment)},
		})
	return bar
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
