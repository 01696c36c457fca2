package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/starfederation/datastar-go/datastar"

	"coffee-dashboard/internal/models"
	"coffee-dashboard/internal/services"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const noData = "no data"

var metricsTemplate = template.Must(template.New("metrics").Parse(`
<div id="metrics-content" class="metric-cards">
<div class="metric-card"><h3>Quantity sold</h3><p>{{.Quantity}}</p></div>
<div class="metric-card"><h3>Average ticket</h3><p>{{.Ticket}}</p></div>
</div>`))

var barChartTemplate = template.Must(template.New("bars").Parse(`
<div id="{{.ID}}" class="bar-chart">
<h3>{{.Title}}</h3>
{{if not .Bars}}<p class="empty">` + noData + `</p>{{end}}
{{range .Bars}}<div class="bar-row">
<span class="bar-label">{{.Label}}</span>
<span class="bar" style="width: {{printf "%.1f" .Percent}}%"></span>
<span class="bar-value">{{.Value}}</span>
</div>{{end}}
</div>`))

type metricsView struct {
	Quantity string
	Ticket   string
}

type bar struct {
	Label   string
	Value   string
	Percent float64
}

type barChartView struct {
	ID    string
	Title string
	Bars  []bar
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func renderMetrics(d services.Dashboard) (string, error) {
	view := metricsView{Quantity: humanize.Comma(int64(d.TotalQuantity)), Ticket: noData}
	if !d.Empty && d.AverageTicket.Valid {
		view.Ticket = "R$ " + d.AverageTicket.Decimal.StringFixed(2)
	}

	var buf strings.Builder
	err := metricsTemplate.Execute(&buf, view)
	return buf.String(), err
}

func renderBarChart(id, title string, labels []string, values []int) (string, error) {
	peak := 0
	for _, v := range values {
		peak = max(peak, v)
	}

	view := barChartView{ID: id, Title: title}
	for i, label := range labels {
		b := bar{Label: label, Value: humanize.Comma(int64(values[i]))}
		if peak > 0 {
			b.Percent = float64(values[i]) * 100 / float64(peak)
		}
		view.Bars = append(view.Bars, b)
	}

	var buf strings.Builder
	err := barChartTemplate.Execute(&buf, view)
	return buf.String(), err
}

func renderCategoryChart(b models.CategoryBreakdown) (string, error) {
	labels := make([]string, len(b))
	values := make([]int, len(b))
	for i, e := range b {
		labels[i] = e.Category
		values[i] = e.Quantity
	}
	return renderBarChart("category-chart", "Best-selling categories", labels, values)
}

func renderHourlyChart(b models.HourlyBreakdown) (string, error) {
	labels := make([]string, len(b))
	values := make([]int, len(b))
	for i, e := range b {
		labels[i] = fmt.Sprintf("%02dh", e.Hour)
		values[i] = e.Quantity
	}
	return renderBarChart("hourly-chart", "Sales by hour of day", labels, values)
}

// HandleDashboard reads the filter signals, runs the pipeline and patches
// the metric cards, both charts and the chart data signals.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	signals := defaultSignals(h.analytics.Options())
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read filter signals", "error", err)
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)

	dashboard, err := h.analytics.Query(r.Context(), signals.spec())
	if err != nil {
		h.logger.Error("dashboard query", "error", err)
		return
	}

	metrics, err := renderMetrics(dashboard)
	if err != nil {
		h.logger.Error("render metrics", "error", err)
		return
	}
	categories, err := renderCategoryChart(dashboard.Categories)
	if err != nil {
		h.logger.Error("render category chart", "error", err)
		return
	}
	hours, err := renderHourlyChart(dashboard.Hours)
	if err != nil {
		h.logger.Error("render hourly chart", "error", err)
		return
	}

	sse.PatchElements(metrics)
	sse.PatchElements(categories)
	sse.PatchElements(hours)

	jsonData, err := json.Marshal(map[string]any{
		"categoryData": dashboard.Categories,
		"hourlyData":   dashboard.Hours,
		"empty":        dashboard.Empty,
	})
	if err != nil {
		h.logger.Error("marshal chart data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
