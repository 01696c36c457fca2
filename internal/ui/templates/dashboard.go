package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	jsoniter "github.com/json-iterator/go"

	"coffee-dashboard/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.5/bundles/datastar.js"

const dashboardStyle = `
body { font-family: sans-serif; margin: 0; display: flex; }
aside { width: 260px; padding: 16px; background: #e7f7f0; min-height: 100vh; }
main { flex: 1; padding: 24px; }
.metric-cards { display: flex; gap: 16px; }
.metric-card { background: #ff7043; color: white; padding: 20px; border-radius: 10px; flex: 1; }
.metric-card p { font-size: 24px; }
.bar-row { display: flex; align-items: center; gap: 8px; margin: 4px 0; }
.bar-label { width: 160px; }
.bar { background: #ff7043; height: 14px; display: inline-block; }
fieldset { border: none; padding: 0; margin-bottom: 16px; }
`

// Dashboard renders the page shell: the filter sidebar bound to datastar
// signals and empty containers that /sse/dashboard patches on every change.
func Dashboard(opts models.FilterOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals, err := initialSignals(opts)
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		b.WriteString("<title>Coffee Shop Sales</title>")
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s\"></script>", datastarScript)
		fmt.Fprintf(&b, "<style>%s</style></head>", dashboardStyle)

		fmt.Fprintf(&b, "<body data-signals=\"%s\" data-on-load=\"@get('/sse/dashboard')\">", templ.EscapeString(signals))

		b.WriteString("<aside data-on-change=\"@get('/sse/dashboard')\">")

		b.WriteString("<fieldset><legend>Months</legend>")
		b.WriteString("<label><input type=\"checkbox\" data-bind-all-months> All months</label>")
		for _, m := range opts.Months {
			writeCheckbox(&b, "months", string(m))
		}
		b.WriteString("</fieldset>")

		b.WriteString("<fieldset><legend>Stores</legend>")
		b.WriteString("<label><input type=\"checkbox\" data-bind-all-stores> All stores</label>")
		for _, s := range opts.Stores {
			writeCheckbox(&b, "stores", s)
		}
		b.WriteString("</fieldset>")

		b.WriteString("<fieldset><legend>Product categories</legend>")
		for _, c := range opts.Categories {
			writeCheckbox(&b, "categories", c)
		}
		b.WriteString("</fieldset></aside>")

		b.WriteString("<main><h1>Coffee Shop Sales</h1>")
		b.WriteString("<div id=\"metrics-content\"></div>")
		b.WriteString("<div id=\"category-chart\"></div>")
		b.WriteString("<div id=\"hourly-chart\"></div>")
		b.WriteString("</main></body></html>")

		_, err = io.WriteString(w, b.String())
		return err
	})
}

func writeCheckbox(b *strings.Builder, signal, value string) {
	escaped := templ.EscapeString(value)
	fmt.Fprintf(b, "<label><input type=\"checkbox\" data-bind-%s value=\"%s\"> %s</label>", signal, escaped, escaped)
}

func initialSignals(opts models.FilterOptions) (string, error) {
	months := make([]string, 0, len(opts.Months))
	for _, m := range opts.Months {
		months = append(months, string(m))
	}
	categories := append([]string{}, opts.Categories...)

	raw, err := json.Marshal(map[string]any{
		"allMonths":  true,
		"months":     months,
		"allStores":  true,
		"stores":     []string{},
		"categories": categories,
	})
	if err != nil {
		return "", fmt.Errorf("marshal initial signals: %w", err)
	}
	return string(raw), nil
}
